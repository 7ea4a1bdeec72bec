package pricing

import (
	"context"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"

	"github.com/shopspring/decimal"
)

var (
	DefaultInsuranceRate = decimal.RequireFromString("0.002")
	DefaultCODFeeRate    = decimal.RequireFromString("0.04")
)

type Service struct {
	ctx           context.Context
	insuranceRate decimal.Decimal
	codFeeRate    decimal.Decimal
}

type IService interface {
	Calculate(req *models.PricingInput) *types.Response
	Summary(in models.PricingInput) models.PricingSummary
}

// NewService takes the insurance and COD fee rates as fractions of the item
// value, e.g. 0.002 and 0.04.
func NewService(ctx context.Context, insuranceRate, codFeeRate decimal.Decimal) IService {
	return &Service{
		ctx:           ctx,
		insuranceRate: insuranceRate,
		codFeeRate:    codFeeRate,
	}
}
