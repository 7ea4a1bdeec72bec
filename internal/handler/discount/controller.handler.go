package discount

import (
	"context"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/middleware"
	"dashboard-cargo/internal/pkg/validation"
	discountService "dashboard-cargo/internal/service/discount"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx             context.Context
	discountService discountService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, discountService discountService.IService) IHandler {
	return &Handler{
		ctx:             ctx,
		discountService: discountService,
	}
}

// Best godoc
// @Summary      Best discount for one order
// @Description  Returns the highest priority active rule for the vendor. The operator's user_type from the token takes precedence over the query string.
// @Tags         Discounts
// @Produce      json
// @Param        vendor        query     string  true   "Vendor"
// @Param        order_value   query     int     true   "Shipping price before discount"
// @Param        service_type  query     string  false  "Service code"
// @Param        user_type     query     string  false  "User type"
// @Success      200           {object}  types.ResponseAPI{data=models.DiscountCalculation}
// @Failure      400           {object}  types.ResponseAPI
// @Router       /v1/discounts/best [get]
func (h *Handler) Best(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var q models.DiscountQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid discount query", &q, err)}))
		return
	}
	if user, ok := middleware.CurrentUser(c); ok && user.UserType != "" {
		q.UserType = user.UserType
	}

	send(h.discountService.Best(&q))
}
