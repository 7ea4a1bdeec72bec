package models

import "dashboard-cargo/internal/common/enum"

type Party struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"required"`
	Province   string `json:"province" validate:"required"`
	Regency    string `json:"regency" validate:"required"`
	District   string `json:"district" validate:"required"`
	PostalCode string `json:"postal_code,omitempty" validate:"omitempty,numeric"`
}

// PartyRef points at a stored address book entry by ID or carries the
// address inline.
type PartyRef struct {
	ID     string `json:"id,omitempty"`
	Inline *Party `json:"inline,omitempty" validate:"omitempty"`
}

type ItemLine struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Price    int64  `json:"price" validate:"gte=0"`
}

// PackageDetail is the operator's package input. Weight is in grams.
type PackageDetail struct {
	Pieces    int        `json:"pieces" validate:"gt=0"`
	Weight    int64      `json:"weight" validate:"gt=0"`
	Remark    string     `json:"remark"`
	ItemValue int64      `json:"item_value" validate:"gte=0"`
	Items     []ItemLine `json:"items" validate:"omitempty,dive"`
}

// PackageBlock is the wire form of a package; weight is in kilograms.
type PackageBlock struct {
	Pieces          int        `json:"pieces"`
	WeightKg        float64    `json:"weight"`
	Remark          string     `json:"remark"`
	ItemValue       int64      `json:"item_value"`
	Insurance       bool       `json:"insurance"`
	InsuranceAmount int64      `json:"insurance_amount"`
	CODAmount       int64      `json:"cod_amount"`
	Items           []ItemLine `json:"items"`
}

type OrderPayload struct {
	Vendor        enum.VendorEnum        `json:"vendor"`
	ServiceCode   string                 `json:"service_code"`
	PaymentMethod enum.PaymentMethodEnum `json:"payment_method"`
	ShippingCost  int64                  `json:"shipping_cost"`
	TotalPayable  int64                  `json:"total_payable"`
	Package       PackageBlock           `json:"package"`
	ShipperID     string                 `json:"shipper_id,omitempty"`
	ReceiverID    string                 `json:"receiver_id,omitempty"`
	Shipper       *Party                 `json:"shipper,omitempty"`
	Receiver      *Party                 `json:"receiver,omitempty"`
}

// BuildResult is incomplete when Missing is non-empty; such a payload must
// never be submitted.
type BuildResult struct {
	Payload *OrderPayload `json:"payload,omitempty"`
	Missing []string      `json:"missing,omitempty"`
}

func (r BuildResult) Complete() bool {
	return len(r.Missing) == 0 && r.Payload != nil
}

type OrderResult struct {
	OrderID     string `json:"order_id"`
	ReferenceNo string `json:"reference_no"`
}

type CancelOrder struct {
	OrderID string `json:"orderid" validate:"required"`
	Remark  string `json:"remark"`
}
