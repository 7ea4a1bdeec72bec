package models

import (
	"time"

	"dashboard-cargo/internal/common/enum"
)

// DiscountRule is owned by the discount admin. Empty ServiceType or UserType
// means the rule applies to any value.
type DiscountRule struct {
	ID                    string                `json:"id" validate:"required"`
	Vendor                enum.VendorEnum       `json:"vendor" validate:"required,enum"`
	ServiceType           string                `json:"service_type,omitempty"`
	DiscountType          enum.DiscountTypeEnum `json:"discount_type" validate:"required,enum"`
	DiscountValue         float64               `json:"discount_value" validate:"gt=0"`
	MinimumOrderValue     *int64                `json:"minimum_order_value,omitempty"`
	MaximumDiscountAmount *int64                `json:"maximum_discount_amount,omitempty"`
	UserType              string                `json:"user_type,omitempty"`
	Priority              int                   `json:"priority"`
	IsActive              bool                  `json:"is_active"`
	ValidFrom             *time.Time            `json:"valid_from,omitempty"`
	ValidUntil            *time.Time            `json:"valid_until,omitempty"`
}

// InWindow reports whether now falls inside the rule's validity window.
// Both bounds are inclusive and either may be open.
func (r DiscountRule) InWindow(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

type DiscountQuery struct {
	Vendor      enum.VendorEnum `json:"vendor" form:"vendor" validate:"required,enum"`
	OrderValue  int64           `json:"order_value" form:"order_value" validate:"gte=0"`
	ServiceType string          `json:"service_type,omitempty" form:"service_type"`
	UserType    string          `json:"user_type,omitempty" form:"user_type"`
}

// DiscountCalculation always satisfies
// DiscountedPrice == OriginalPrice - DiscountAmount and DiscountedPrice >= 0.
type DiscountCalculation struct {
	HasDiscount     bool                  `json:"has_discount"`
	RuleID          string                `json:"rule_id,omitempty"`
	DiscountType    enum.DiscountTypeEnum `json:"discount_type,omitempty"`
	DiscountValue   float64               `json:"discount_value"`
	OriginalPrice   int64                 `json:"original_price"`
	DiscountedPrice int64                 `json:"discounted_price"`
	DiscountAmount  int64                 `json:"discount_amount"`
}

func NoDiscount(price int64) DiscountCalculation {
	return DiscountCalculation{
		OriginalPrice:   price,
		DiscountedPrice: price,
	}
}

// ActivePrice is the price the pricing step should use.
func (d DiscountCalculation) ActivePrice() int64 {
	if d.HasDiscount {
		return d.DiscountedPrice
	}
	return d.OriginalPrice
}
