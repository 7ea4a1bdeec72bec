package flow

import (
	"context"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/service/discount"
	"dashboard-cargo/internal/service/order"
	"dashboard-cargo/internal/service/pricing"
	"dashboard-cargo/internal/service/rate"
)

type Service struct {
	ctx      context.Context
	sessions *Manager
	epochs   EpochStore
	rate     rate.IService
	discount discount.IService
	pricing  pricing.IService
	order    order.IService
	now      func() time.Time
}

type IService interface {
	Search(ctx context.Context, sessionID, userType string, req *SearchRequest) *types.Response
	Select(ctx context.Context, sessionID, userType string, req *SelectRequest) *types.Response
	Confirm(ctx context.Context, sessionID string, req *ConfirmRequest) *types.Response
	Snapshot(sessionID string) *types.Response
}

type Deps struct {
	Sessions *Manager
	Epochs   EpochStore
	Rate     rate.IService
	Discount discount.IService
	Pricing  pricing.IService
	Order    order.IService
}

func NewService(ctx context.Context, d Deps) IService {
	return &Service{
		ctx:      ctx,
		sessions: d.Sessions,
		epochs:   d.Epochs,
		rate:     d.Rate,
		discount: d.Discount,
		pricing:  d.Pricing,
		order:    d.Order,
		now:      time.Now,
	}
}

type SearchRequest struct {
	Query   models.RateQuery  `json:"query" validate:"required"`
	Flow    enum.FlowEnum     `json:"flow" validate:"omitempty,enum"`
	Vendors []enum.VendorEnum `json:"vendors" validate:"omitempty,dive,enum"`
}

// SelectRequest picks one option of the current result. PaymentMethod
// defaults to the one the query was made with.
type SelectRequest struct {
	OptionID        string                 `json:"option_id" validate:"required"`
	Insurance       bool                   `json:"insurance"`
	PaymentMethod   enum.PaymentMethodEnum `json:"payment_method" validate:"omitempty,enum"`
	ManualCODAmount *int64                 `json:"manual_cod_amount,omitempty" validate:"omitempty,gte=0"`
}

type ConfirmRequest struct {
	Package        *models.PackageDetail `json:"package" validate:"required"`
	Sender         *models.PartyRef      `json:"sender" validate:"required"`
	Receiver       *models.PartyRef      `json:"receiver" validate:"required"`
	IdempotencyKey string                `json:"idempotency_key"`
}
