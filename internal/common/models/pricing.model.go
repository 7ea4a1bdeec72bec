package models

import "dashboard-cargo/internal/common/enum"

type PricingInput struct {
	ShippingPrice   int64                  `json:"shipping_price" validate:"gte=0"`
	ItemValue       int64                  `json:"item_value" validate:"gte=0"`
	PaymentMethod   enum.PaymentMethodEnum `json:"payment_method" validate:"required,enum"`
	Insurance       bool                   `json:"insurance"`
	ManualCODAmount *int64                 `json:"manual_cod_amount,omitempty" validate:"omitempty,gte=0"`
}

// PricingSummary carries CollectibleFromRecipient only for COD orders.
type PricingSummary struct {
	ShippingPrice            int64  `json:"shipping_price"`
	InsuranceCost            int64  `json:"insurance_cost"`
	CODFee                   int64  `json:"cod_fee"`
	TotalPayable             int64  `json:"total_payable"`
	CollectibleFromRecipient *int64 `json:"collectible_from_recipient,omitempty"`
}
