package rate

import (
	"context"

	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/middleware"
	"dashboard-cargo/internal/pkg/validation"
	flowService "dashboard-cargo/internal/service/flow"
	rateService "dashboard-cargo/internal/service/rate"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx         context.Context
	rateService rateService.IService
	flowService flowService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, rateService rateService.IService, flowService flowService.IService) IHandler {
	return &Handler{
		ctx:         ctx,
		rateService: rateService,
		flowService: flowService,
	}
}

// Quote godoc
// @Summary      Quote every courier for one package
// @Description  Queries the selected couriers concurrently and returns the merged, normalized options. Nothing is kept between calls.
// @Tags         Rates
// @Accept       json
// @Produce      json
// @Param        request  body      rateService.QuoteRequest  true  "Rate query"
// @Success      200      {object}  types.ResponseAPI{data=models.RateResult}
// @Failure      400      {object}  types.ResponseAPI
// @Router       /v1/rates/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req rateService.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid rate query", &req, err)}))
		return
	}

	send(h.rateService.Quote(c.Request.Context(), &req))
}

// Search godoc
// @Summary      Start a rate search in a session
// @Description  Starts a new query for the session in X-Session-ID (a new session when absent). Earlier options, discounts and pricing are dropped. A search overtaken by a newer one answers 409.
// @Tags         Rates
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string                     false  "Flow session"
// @Param        request       body      flowService.SearchRequest  true   "Rate query"
// @Success      200           {object}  types.ResponseAPI{data=flowService.Snapshot}
// @Failure      400           {object}  types.ResponseAPI
// @Failure      409           {object}  types.ResponseAPI
// @Router       /v1/rates/search [post]
func (h *Handler) Search(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req flowService.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid rate query", &req, err)}))
		return
	}

	res := h.flowService.Search(c.Request.Context(), c.GetHeader(middleware.SessionIDHeader), userType(c), &req)
	send(withSession(c, res))
}

// Select godoc
// @Summary      Select and price one option
// @Description  Resolves the best discount for the chosen option and computes insurance, COD fee and totals.
// @Tags         Rates
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string                     true  "Flow session"
// @Param        request       body      flowService.SelectRequest  true  "Selection"
// @Success      200           {object}  types.ResponseAPI{data=flowService.Snapshot}
// @Failure      400           {object}  types.ResponseAPI
// @Failure      404           {object}  types.ResponseAPI
// @Failure      409           {object}  types.ResponseAPI
// @Router       /v1/rates/select [post]
func (h *Handler) Select(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	sessionID := c.GetHeader(middleware.SessionIDHeader)
	if sessionID == "" {
		send(helper.ParseResponse(&types.Response{Error: missingSession()}))
		return
	}

	var req flowService.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{Error: validation.BindError("invalid selection", &req, err)}))
		return
	}

	send(withSession(c, h.flowService.Select(c.Request.Context(), sessionID, userType(c), &req)))
}

// Session godoc
// @Summary      Current state of a flow session
// @Tags         Rates
// @Produce      json
// @Param        session_id  path      string  true  "Flow session"
// @Success      200         {object}  types.ResponseAPI{data=flowService.Snapshot}
// @Failure      404         {object}  types.ResponseAPI
// @Router       /v1/rates/session/{session_id} [get]
func (h *Handler) Session(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.flowService.Snapshot(c.Param("session_id")))
}

func userType(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.UserType
	}
	return ""
}

func withSession(c *gin.Context, r *types.Response) *types.Response {
	if snap, ok := r.Data.(flowService.Snapshot); ok {
		c.Header(middleware.SessionIDHeader, snap.SessionID)
	}
	return r
}

func missingSession() error {
	return &errorx.ErrValidation{
		Message: "missing session",
		Fields:  map[string]string{middleware.SessionIDHeader: "is required"},
	}
}
