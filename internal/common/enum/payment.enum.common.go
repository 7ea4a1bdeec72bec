package enum

type PaymentMethodEnum string

const (
	COD     PaymentMethodEnum = "cod"
	NON_COD PaymentMethodEnum = "non_cod"
)

func (e PaymentMethodEnum) ToString() string {
	switch e {
	case COD:
		return "cod"
	case NON_COD:
		return "non_cod"
	}
	return ""
}

func (e PaymentMethodEnum) IsValid() bool {
	switch e {
	case COD, NON_COD:
		return true
	}
	return false
}

type DiscountTypeEnum string

const (
	PERCENTAGE   DiscountTypeEnum = "percentage"
	FIXED_AMOUNT DiscountTypeEnum = "fixed_amount"
)

func (e DiscountTypeEnum) ToString() string {
	switch e {
	case PERCENTAGE:
		return "percentage"
	case FIXED_AMOUNT:
		return "fixed_amount"
	}
	return ""
}

func (e DiscountTypeEnum) IsValid() bool {
	switch e {
	case PERCENTAGE, FIXED_AMOUNT:
		return true
	}
	return false
}
