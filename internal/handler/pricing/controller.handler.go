package pricing

import (
	"context"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/validation"
	pricingService "dashboard-cargo/internal/service/pricing"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx            context.Context
	pricingService pricingService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, pricingService pricingService.IService) IHandler {
	return &Handler{
		ctx:            ctx,
		pricingService: pricingService,
	}
}

// Calculate godoc
// @Summary      Price an order
// @Description  Computes insurance, COD fee, the total payable and, for COD, the amount collected from the recipient.
// @Tags         Pricing
// @Accept       json
// @Produce      json
// @Param        request  body      models.PricingInput  true  "Pricing input"
// @Success      200      {object}  types.ResponseAPI{data=models.PricingSummary}
// @Failure      400      {object}  types.ResponseAPI
// @Router       /v1/pricing/calculate [post]
func (h *Handler) Calculate(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req models.PricingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid pricing input", &req, err)}))
		return
	}

	send(h.pricingService.Calculate(&req))
}
