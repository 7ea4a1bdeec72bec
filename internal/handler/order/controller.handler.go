package order

import (
	"context"
	"errors"
	"io"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/middleware"
	"dashboard-cargo/internal/pkg/validation"
	flowService "dashboard-cargo/internal/service/flow"
	orderService "dashboard-cargo/internal/service/order"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	ctx          context.Context
	orderService orderService.IService
	flowService  flowService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, orderService orderService.IService, flowService flowService.IService) IHandler {
	return &Handler{
		ctx:          ctx,
		orderService: orderService,
		flowService:  flowService,
	}
}

// Confirm godoc
// @Summary      Submit the priced selection as an order
// @Description  Builds the vendor payload from the session's selection and submits it once. A failed submission can be confirmed again with the same idempotency key.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Session-ID     header    string                      true   "Flow session"
// @Param        Idempotency-Key  header    string                      false  "Idempotency key"
// @Param        request          body      flowService.ConfirmRequest  true   "Package and parties"
// @Success      201              {object}  types.ResponseAPI{data=flowService.Snapshot}
// @Failure      400              {object}  types.ResponseAPI
// @Failure      409              {object}  types.ResponseAPI
// @Failure      422              {object}  types.ResponseAPI
// @Failure      502              {object}  types.ResponseAPI
// @Router       /v1/orders/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	sessionID := c.GetHeader(middleware.SessionIDHeader)
	if sessionID == "" {
		send(helper.ParseResponse(&types.Response{Error: &errorx.ErrValidation{
			Message: "missing session",
			Fields:  map[string]string{middleware.SessionIDHeader: "is required"},
		}}))
		return
	}

	var req flowService.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid order input", &req, err)}))
		return
	}
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		req.IdempotencyKey = key
	}

	send(h.flowService.Confirm(c.Request.Context(), sessionID, &req))
}

// Preview godoc
// @Summary      Build an order payload without submitting it
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      orderService.BuildInput  true  "Order input"
// @Success      200      {object}  types.ResponseAPI{data=models.BuildResult}
// @Failure      400      {object}  types.ResponseAPI
// @Router       /v1/orders/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req orderService.BuildInput
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid order input", &req, err)}))
		return
	}

	send(h.orderService.Preview(&req))
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Queued when the broker is available (202), otherwise cancelled right away (200).
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_id  path      string              true   "Order ID"
// @Param        request   body      models.CancelOrder  false  "Remark"
// @Success      200       {object}  types.ResponseAPI
// @Success      202       {object}  types.ResponseAPI
// @Failure      400       {object}  types.ResponseAPI
// @Router       /v1/orders/{order_id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	// the body is optional and only carries the remark
	var body struct {
		Remark string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid cancel request", &body, err)}))
		return
	}

	send(h.orderService.Cancel(&models.CancelOrder{OrderID: c.Param("order_id"), Remark: body.Remark}))
}
