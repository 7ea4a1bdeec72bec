package order

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) Preview(req *BuildInput) *types.Response {
	if err := validation.AsValidationError("invalid order input", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	result := s.Build(*req)
	message := "Order payload ready"
	if !result.Complete() {
		message = "Order payload incomplete"
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    result,
	})
}

func (s *Service) Submit(ctx context.Context, payload *models.OrderPayload, idempotencyKey string) (*models.OrderResult, error) {
	if payload == nil {
		return nil, &errorx.ErrValidation{Message: "order payload incomplete", Fields: map[string]string{"payload": "is required"}}
	}
	if err := validateParties(payload); err != nil {
		return nil, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	res, err := s.rp.Order.Create(ctx, payload, idempotencyKey)
	if err != nil {
		logger.Z().Warn("order submission failed",
			zap.String("vendor", payload.Vendor.ToString()),
			zap.String("idempotency_key", idempotencyKey),
			zap.Error(err))
		return nil, err
	}

	logger.Z().Info("order submitted",
		zap.String("order_id", res.OrderID),
		zap.String("vendor", payload.Vendor.ToString()))
	s.publish(ctx, enum.EVENT_ORDER_SUBMITTED, SubmittedEvent{
		OrderID:      res.OrderID,
		ReferenceNo:  res.ReferenceNo,
		Vendor:       payload.Vendor,
		ServiceCode:  payload.ServiceCode,
		Payment:      payload.PaymentMethod,
		TotalPayable: payload.TotalPayable,
	})
	return res, nil
}

func validateParties(payload *models.OrderPayload) error {
	fields := map[string]string{}
	for prefix, party := range map[string]*models.Party{"shipper": payload.Shipper, "receiver": payload.Receiver} {
		if party == nil {
			continue
		}
		for k, v := range validation.ValidateFields(party) {
			fields[prefix+"."+k] = v
		}
	}
	if len(fields) > 0 {
		return &errorx.ErrValidation{Message: "invalid order parties", Fields: fields}
	}
	return nil
}

// Cancel queues the cancellation when a broker is configured and falls back
// to the synchronous call when it is not or publishing fails.
func (s *Service) Cancel(req *models.CancelOrder) *types.Response {
	if err := validation.AsValidationError("invalid cancel request", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	if s.publisher != nil {
		err := s.publisher.PublishEvent(s.ctx, enum.QUEUE_ORDER_CANCEL.ToString(), req)
		if err == nil {
			return helper.ParseResponse(&types.Response{
				Code:    http.StatusAccepted,
				Message: "Cancellation queued",
				Data:    req,
			})
		}
		logger.Warning.Printf("queueing cancellation of %s failed, cancelling inline: %v", req.OrderID, err)
	}

	if err := s.CancelNow(s.ctx, *req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Order cancelled",
		Data:    req,
	})
}

func (s *Service) CancelNow(ctx context.Context, req models.CancelOrder) error {
	if req.OrderID == "" {
		return &errorx.ErrValidation{Message: "invalid cancel request", Fields: map[string]string{"orderid": "is required"}}
	}
	if err := s.rp.Order.Cancel(ctx, req); err != nil {
		return fmt.Errorf("cancel %s: %w", req.OrderID, err)
	}
	s.publish(ctx, enum.EVENT_ORDER_CANCELLED, req)
	return nil
}

// publish is best effort; the order already exists on the backend.
func (s *Service) publish(ctx context.Context, pattern enum.EventPatternEnum, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, pattern.ToString(), data); err != nil {
		logger.Warning.Printf("publishing %s failed: %v", pattern, err)
	}
}
