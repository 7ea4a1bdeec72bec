package flow

import (
	"context"
	"fmt"
	"net/http"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/validation"
	"dashboard-cargo/internal/service/order"
	"dashboard-cargo/internal/service/rate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Search starts a new query on the session. Whatever the session held
// before is dropped, and a batch that settles after a newer Search has
// started is discarded with ErrStaleBatch.
func (s *Service) Search(ctx context.Context, sessionID, userType string, req *SearchRequest) *types.Response {
	if err := validation.AsValidationError("invalid rate query", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	session, err := s.sessions.Open(sessionID)
	if err != nil {
		return helper.ParseResponse(&types.Response{Error: fmt.Errorf("open session: %w", err)})
	}
	vendors := rate.ResolveVendors(req.Flow, req.Vendors)

	session.mu.Lock()
	if err := session.transition(enum.STATE_DISPATCHING, s.now()); err != nil {
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: err})
	}
	epoch, err := s.epochs.Next(session.id)
	if err != nil {
		// epochs start at 1, so nothing in flight can match 0
		session.reset(0, req.Query, vendors)
		session.lastErr = err.Error()
		_ = session.transition(enum.STATE_DISPATCH_ERROR, s.now())
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: fmt.Errorf("next epoch: %w", err)})
	}
	session.reset(epoch, req.Query, vendors)
	session.mu.Unlock()

	result, dispatchErr := s.rate.Rates(ctx, req.Query, vendors)

	var discounts map[string]models.DiscountCalculation
	if dispatchErr == nil && len(result.Options) > 0 && s.discount != nil {
		discounts = s.discount.ResolveBatch(ctx, result.Options, userType)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !s.current(session, epoch) {
		logger.Z().Info("discarding stale rate batch",
			zap.String("session_id", session.id),
			zap.Int64("epoch", epoch),
			zap.Int64("current", session.epoch))
		if session.epoch == epoch && session.state == enum.STATE_DISPATCHING {
			// superseded by a search on another instance; no later batch
			// will settle this session here
			session.lastErr = errorx.ErrStaleBatch.Error()
			_ = session.transition(enum.STATE_DISPATCH_ERROR, s.now())
		}
		return helper.ParseResponse(&types.Response{Error: errorx.ErrStaleBatch})
	}

	if dispatchErr != nil {
		session.lastErr = dispatchErr.Error()
		if err := session.transition(enum.STATE_DISPATCH_ERROR, s.now()); err != nil {
			return helper.ParseResponse(&types.Response{Error: err})
		}
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "Rate lookup could not run",
			Data:    session.snapshot(),
			Error:   dispatchErr,
		})
	}

	session.result = result
	session.discounts = discounts

	next, message := enum.STATE_OPTIONS_AVAILABLE, "Shipping options found"
	if result.NoService {
		next, message = enum.STATE_NO_OPTIONS, "No shipping service available for this route"
	}
	if err := session.transition(next, s.now()); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    session.snapshot(),
	})
}

// Select resolves the discount and prices the chosen option.
func (s *Service) Select(ctx context.Context, sessionID, userType string, req *SelectRequest) *types.Response {
	if err := validation.AsValidationError("invalid selection", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	session, err := s.session(sessionID)
	if err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	session.mu.Lock()
	if !session.state.CanTransitionTo(enum.STATE_PRICING_READY) {
		err := &errorx.ErrInvalidTransition{From: session.state.ToString(), To: enum.STATE_PRICING_READY.ToString()}
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: err})
	}
	option, ok := session.option(req.OptionID)
	if !ok {
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: &errorx.ErrValidation{
			Message: "invalid selection",
			Fields:  map[string]string{"option_id": "is not one of the current options"},
		}})
	}
	epoch, query := session.epoch, *session.query
	session.mu.Unlock()

	calc := s.discount.Resolve(ctx, models.DiscountQuery{
		Vendor:      option.Vendor,
		OrderValue:  option.BasePrice,
		ServiceType: option.ServiceCode,
		UserType:    userType,
	})

	payment := req.PaymentMethod
	if payment == "" {
		payment = query.PaymentMethod
	}
	input := models.PricingInput{
		ShippingPrice:   calc.ActivePrice(),
		ItemValue:       query.ItemValue,
		PaymentMethod:   payment,
		Insurance:       req.Insurance,
		ManualCODAmount: req.ManualCODAmount,
	}
	summary := s.pricing.Summary(input)

	session.mu.Lock()
	defer session.mu.Unlock()

	if !s.current(session, epoch) {
		return helper.ParseResponse(&types.Response{Error: errorx.ErrStaleBatch})
	}
	if err := session.transition(enum.STATE_PRICING_READY, s.now()); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}
	if session.selected == nil || session.selected.ID != option.ID {
		session.idempotencyKey = ""
	}
	session.selected = &option
	session.discount = &calc
	session.pricingInput = &input
	session.pricing = &summary
	session.lastErr = ""

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Pricing ready",
		Data:    session.snapshot(),
	})
}

// Confirm builds the order from the priced selection and submits it once.
// A failed submission may be confirmed again; the idempotency key is kept
// until the selection changes.
func (s *Service) Confirm(ctx context.Context, sessionID string, req *ConfirmRequest) *types.Response {
	if err := validation.AsValidationError("invalid order input", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	session, err := s.session(sessionID)
	if err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	session.mu.Lock()
	if !session.state.CanTransitionTo(enum.STATE_SUBMITTING) {
		err := &errorx.ErrInvalidTransition{From: session.state.ToString(), To: enum.STATE_SUBMITTING.ToString()}
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: err})
	}

	build := s.order.Build(order.BuildInput{
		Option:        session.selected,
		Pricing:       session.pricing,
		PaymentMethod: session.pricingInput.PaymentMethod,
		Insurance:     session.pricingInput.Insurance,
		Package:       req.Package,
		Sender:        req.Sender,
		Receiver:      req.Receiver,
	})
	if !build.Complete() {
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: missingFields(build.Missing)})
	}

	switch {
	case req.IdempotencyKey != "":
		session.idempotencyKey = req.IdempotencyKey
	case session.idempotencyKey == "":
		session.idempotencyKey = uuid.NewString()
	}
	key, epoch := session.idempotencyKey, session.epoch
	if err := session.transition(enum.STATE_SUBMITTING, s.now()); err != nil {
		session.mu.Unlock()
		return helper.ParseResponse(&types.Response{Error: err})
	}
	session.mu.Unlock()

	res, submitErr := s.order.Submit(ctx, build.Payload, key)

	session.mu.Lock()
	defer session.mu.Unlock()

	if !s.current(session, epoch) {
		// a search cannot start while submitting, so this is another instance
		logger.Z().Warn("order settled after its session moved on",
			zap.String("session_id", session.id),
			zap.String("idempotency_key", key),
			zap.Error(submitErr))
		return helper.ParseResponse(&types.Response{Error: errorx.ErrStaleBatch})
	}

	if submitErr != nil {
		session.lastErr = submitErr.Error()
		_ = session.transition(enum.STATE_SUBMIT_FAILED, s.now())
		return helper.ParseResponse(&types.Response{
			Data:  session.snapshot(),
			Error: submitErr,
		})
	}

	session.order = res
	session.lastErr = ""
	_ = session.transition(enum.STATE_SUBMITTED, s.now())
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusCreated,
		Message: "Order submitted",
		Data:    session.snapshot(),
	})
}

func (s *Service) Snapshot(sessionID string) *types.Response {
	session, err := s.session(sessionID)
	if err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Session found",
		Data:    session.Snapshot(),
	})
}

func (s *Service) session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, errorx.ErrNotFound)
	}
	return session, nil
}

// current reports whether epoch is still the live one, both for this
// process and in the shared store. Called with session.mu held.
func (s *Service) current(session *Session, epoch int64) bool {
	if session.epoch != epoch {
		return false
	}
	shared, err := s.epochs.Current(session.id)
	if err != nil {
		logger.Z().Warn("epoch store unavailable, trusting local epoch",
			zap.String("session_id", session.id),
			zap.Error(err))
		return true
	}
	return shared == epoch
}

func missingFields(missing []string) error {
	fields := make(map[string]string, len(missing))
	for _, m := range missing {
		fields[m] = "is required"
	}
	return &errorx.ErrValidation{Message: "order payload incomplete", Fields: fields}
}
