package pricing

import (
	"net/http"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

func (s *Service) Calculate(req *models.PricingInput) *types.Response {
	if err := validation.AsValidationError("invalid pricing input", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Pricing calculated",
		Data:    s.Summary(*req),
	})
}

// Summary is pure. ShippingPrice must already be the discounted price when a
// discount applies.
func (s *Service) Summary(in models.PricingInput) models.PricingSummary {
	itemValue := decimal.NewFromInt(in.ItemValue)

	var insurance, codFee int64
	if in.Insurance {
		insurance = roundHalfUp(itemValue.Mul(s.insuranceRate))
	}
	if in.PaymentMethod == enum.COD {
		codFee = roundHalfUp(itemValue.Mul(s.codFeeRate))
	}

	summary := models.PricingSummary{
		ShippingPrice: in.ShippingPrice,
		InsuranceCost: insurance,
		CODFee:        codFee,
		TotalPayable:  in.ShippingPrice + codFee + insurance,
	}

	if in.PaymentMethod == enum.COD {
		collectible := in.ItemValue + in.ShippingPrice + codFee + insurance
		if in.ManualCODAmount != nil {
			collectible = *in.ManualCODAmount
		}
		summary.CollectibleFromRecipient = &collectible
	}
	return summary
}

func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
