package order

import (
	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"

	"github.com/shopspring/decimal"
)

// Build assembles the vendor payload. Anything missing is listed in
// Missing and no payload is returned, so an incomplete order can never be
// submitted by accident.
func (s *Service) Build(in BuildInput) models.BuildResult {
	var missing []string

	var vendor enum.VendorEnum
	if in.Option == nil || in.Option.ID == "" {
		missing = append(missing, "option")
	} else if v, ok := enum.VendorFromOptionID(in.Option.ID); ok {
		vendor = v
	} else {
		missing = append(missing, "option.vendor")
	}
	if in.Pricing == nil {
		missing = append(missing, "pricing")
	}
	if in.Package == nil {
		missing = append(missing, "package")
	}

	// a stored receiver switches both parties to references
	byReference := in.Receiver != nil && in.Receiver.ID != ""
	if byReference {
		if in.Sender == nil || in.Sender.ID == "" {
			missing = append(missing, "sender.id")
		}
	} else {
		if in.Sender == nil || in.Sender.Inline == nil {
			missing = append(missing, "sender")
		}
		if in.Receiver == nil || in.Receiver.Inline == nil {
			missing = append(missing, "receiver")
		}
	}

	if len(missing) > 0 {
		return models.BuildResult{Missing: missing}
	}

	payment := in.PaymentMethod
	if payment == "" {
		payment = enum.NON_COD
		if in.Pricing.CollectibleFromRecipient != nil {
			payment = enum.COD
		}
	}

	var codAmount int64
	if payment == enum.COD && in.Pricing.CollectibleFromRecipient != nil {
		codAmount = *in.Pricing.CollectibleFromRecipient
	}

	payload := &models.OrderPayload{
		Vendor:        vendor,
		ServiceCode:   in.Option.ServiceCode,
		PaymentMethod: payment,
		ShippingCost:  in.Pricing.ShippingPrice,
		TotalPayable:  in.Pricing.TotalPayable,
		Package: models.PackageBlock{
			Pieces:          in.Package.Pieces,
			WeightKg:        kilograms(in.Package.Weight),
			Remark:          in.Package.Remark,
			ItemValue:       in.Package.ItemValue,
			Insurance:       in.Insurance || in.Pricing.InsuranceCost > 0,
			InsuranceAmount: in.Pricing.InsuranceCost,
			CODAmount:       codAmount,
			Items:           in.Package.Items,
		},
	}
	if payload.Package.Items == nil {
		payload.Package.Items = []models.ItemLine{}
	}

	if byReference {
		payload.ShipperID = in.Sender.ID
		payload.ReceiverID = in.Receiver.ID
	} else {
		shipper, receiver := *in.Sender.Inline, *in.Receiver.Inline
		payload.Shipper = &shipper
		payload.Receiver = &receiver
	}

	return models.BuildResult{Payload: payload}
}

func kilograms(grams int64) float64 {
	return decimal.NewFromInt(grams).Div(decimal.NewFromInt(1000)).InexactFloat64()
}
