package rate

import (
	"context"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/repository"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

type Service struct {
	ctx  context.Context
	rp   repository.IRepository
	pool *ants.Pool
}

type IService interface {
	Quote(ctx context.Context, req *QuoteRequest) *types.Response

	// Dispatch fans the query out to every vendor and waits for all of
	// them. Outcomes are in the order of vendors.
	Dispatch(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) ([]models.VendorOutcome, error)
	Rates(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) (*models.RateResult, error)
}

// NewService shares pool with the rest of the process; it is never closed here.
func NewService(ctx context.Context, rp repository.IRepository, pool *ants.Pool) IService {
	return &Service{
		ctx:  ctx,
		rp:   rp,
		pool: pool,
	}
}

// QuoteRequest picks vendors either explicitly or through a dashboard flow.
// With neither, every vendor is queried.
type QuoteRequest struct {
	Query   models.RateQuery  `json:"query" validate:"required"`
	Flow    enum.FlowEnum     `json:"flow" validate:"omitempty,enum"`
	Vendors []enum.VendorEnum `json:"vendors" validate:"omitempty,dive,enum"`
}

func ResolveVendors(flow enum.FlowEnum, vendors []enum.VendorEnum) []enum.VendorEnum {
	if len(vendors) > 0 {
		return lo.Uniq(vendors)
	}
	if flow == "" {
		flow = enum.FLOW_ALL
	}
	return flow.Vendors()
}
