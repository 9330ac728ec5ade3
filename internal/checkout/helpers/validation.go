package helpers

import (
	"fmt"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// ValidatePaymentMethod ensures a supported payment method was chosen.
func ValidatePaymentMethod(method enums.PaymentMethod) error {
	if method == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method))
	}
	return nil
}

// ValidateNonNegative rejects negative money fields.
func ValidateNonNegative(fields map[string]int64) error {
	for name, value := range fields {
		if value < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, name+" must not be negative")
		}
	}
	return nil
}

// ValidateSum checks that parts add up to the declared total.
func ValidateSum(name string, total int64, parts []int64) error {
	var sum int64
	for _, part := range parts {
		sum += part
	}
	if sum != total {
		return pkgerrors.New(pkgerrors.CodeValidation, name+" does not match the sum of vendor orders").
			WithDetails(map[string]any{"declared": total, "computed": sum})
	}
	return nil
}
