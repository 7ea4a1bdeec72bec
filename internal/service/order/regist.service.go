package order

import (
	"context"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/repository"
)

// IPublisher is the part of the broker the order flow needs.
// *rabbitmq.Publisher satisfies it.
type IPublisher interface {
	PublishEvent(ctx context.Context, pattern string, data interface{}) error
}

type Service struct {
	ctx       context.Context
	rp        repository.IRepository
	publisher IPublisher
}

type IService interface {
	Preview(req *BuildInput) *types.Response
	Cancel(req *models.CancelOrder) *types.Response

	Build(in BuildInput) models.BuildResult
	// Submit sends a complete payload once. It is never retried.
	Submit(ctx context.Context, payload *models.OrderPayload, idempotencyKey string) (*models.OrderResult, error)
	CancelNow(ctx context.Context, req models.CancelOrder) error
}

// NewService accepts a nil publisher; events are then skipped and
// cancellations run synchronously.
func NewService(ctx context.Context, rp repository.IRepository, publisher IPublisher) IService {
	return &Service{
		ctx:       ctx,
		rp:        rp,
		publisher: publisher,
	}
}

// BuildInput is everything the order payload is assembled from. Sender and
// Receiver either reference stored address book entries by id or carry the
// address inline.
type BuildInput struct {
	Option        *models.ShippingOption `json:"option"`
	Pricing       *models.PricingSummary `json:"pricing"`
	PaymentMethod enum.PaymentMethodEnum `json:"payment_method" validate:"omitempty,enum"`
	Insurance     bool                   `json:"insurance"`
	Package       *models.PackageDetail  `json:"package"`
	Sender        *models.PartyRef       `json:"sender"`
	Receiver      *models.PartyRef       `json:"receiver"`
}

type SubmittedEvent struct {
	OrderID      string                 `json:"order_id"`
	ReferenceNo  string                 `json:"reference_no"`
	Vendor       enum.VendorEnum        `json:"vendor"`
	ServiceCode  string                 `json:"service_code"`
	Payment      enum.PaymentMethodEnum `json:"payment_method"`
	TotalPayable int64                  `json:"total_payable"`
}
