package discount

import (
	"context"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"

	"github.com/panjf2000/ants/v2"
)

// IEligibility finds the best discount for one order. A nil calculation
// with a nil error means no rule applies. The backend repository and
// RuleEvaluator both satisfy it.
type IEligibility interface {
	Best(ctx context.Context, q models.DiscountQuery) (*models.DiscountCalculation, error)
}

type Service struct {
	ctx         context.Context
	eligibility IEligibility
	pool        *ants.Pool
}

type IService interface {
	Best(q *models.DiscountQuery) *types.Response

	// Resolve never fails; any lookup problem degrades to no discount.
	Resolve(ctx context.Context, q models.DiscountQuery) models.DiscountCalculation
	// ResolveBatch prices each option independently, keyed by option id.
	ResolveBatch(ctx context.Context, options []models.ShippingOption, userType string) map[string]models.DiscountCalculation
}

func NewService(ctx context.Context, eligibility IEligibility, pool *ants.Pool) IService {
	return &Service{
		ctx:         ctx,
		eligibility: eligibility,
		pool:        pool,
	}
}
