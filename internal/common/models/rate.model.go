package models

import (
	"encoding/json"

	"dashboard-cargo/internal/common/enum"
)

// Region identifies an administrative area by name. Code carries a
// vendor-facing area id when the dashboard already knows it.
type Region struct {
	Province   string `json:"province" validate:"required"`
	Regency    string `json:"regency" validate:"required"`
	District   string `json:"district" validate:"required"`
	PostalCode string `json:"postal_code" validate:"omitempty,numeric"`
	Code       string `json:"code" validate:"omitempty"`
}

type Dimensions struct {
	Length int `json:"length" validate:"gte=0"`
	Width  int `json:"width" validate:"gte=0"`
	Height int `json:"height" validate:"gte=0"`
}

// RateQuery is built once per search and never mutated afterwards.
// Weight is in grams and item value in rupiah.
type RateQuery struct {
	Origin        Region                 `json:"origin" validate:"required"`
	Destination   Region                 `json:"destination" validate:"required"`
	Weight        int64                  `json:"weight" validate:"required,gt=0"`
	Dimensions    *Dimensions            `json:"dimensions,omitempty" validate:"omitempty"`
	ItemValue     int64                  `json:"item_value" validate:"gte=0"`
	PaymentMethod enum.PaymentMethodEnum `json:"payment_method" validate:"required,enum"`
}

// VendorOutcome is either a raw success payload or a failure reason.
type VendorOutcome struct {
	Vendor enum.VendorEnum
	Raw    json.RawMessage
	Err    error
}

func (o VendorOutcome) OK() bool {
	return o.Err == nil
}

func (o VendorOutcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type DurationEstimate struct {
	Text    string `json:"text"`
	MinDays int    `json:"min_days,omitempty"`
	MaxDays int    `json:"max_days,omitempty"`
}

type ShippingOption struct {
	ID          string           `json:"id"`
	Vendor      enum.VendorEnum  `json:"vendor"`
	ServiceCode string           `json:"service_code"`
	DisplayName string           `json:"display_name"`
	BasePrice   int64            `json:"base_price"`
	Duration    DurationEstimate `json:"duration_estimate"`
	Recommended bool             `json:"recommended"`
	Tags        []string         `json:"tags,omitempty"`
}

type VendorFailure struct {
	Vendor enum.VendorEnum `json:"vendor"`
	Reason string          `json:"reason"`
}

// RateResult is the merged outcome of one dispatch cycle. NoService is set
// when every vendor settled without producing an option.
type RateResult struct {
	Options   []ShippingOption `json:"options"`
	Failures  []VendorFailure  `json:"failures"`
	NoService bool             `json:"no_service"`
}
