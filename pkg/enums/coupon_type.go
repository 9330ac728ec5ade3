package enums

import "fmt"

// CouponType describes how a coupon discounts an order group.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFlat         CouponType = "flat"
	CouponTypeFreeDelivery CouponType = "free_delivery"
)

var validCouponTypes = []CouponType{
	CouponTypePercentage,
	CouponTypeFlat,
	CouponTypeFreeDelivery,
}

// String implements fmt.Stringer.
func (v CouponType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CouponType.
func (v CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}
