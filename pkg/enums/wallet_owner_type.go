package enums

import "fmt"

// WalletOwnerType identifies the kind of party owning a wallet.
type WalletOwnerType string

const (
	WalletOwnerTypeVendor  WalletOwnerType = "vendor"
	WalletOwnerTypeCourier WalletOwnerType = "courier"
)

var validWalletOwnerTypes = []WalletOwnerType{
	WalletOwnerTypeVendor,
	WalletOwnerTypeCourier,
}

// String implements fmt.Stringer.
func (v WalletOwnerType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletOwnerType.
func (v WalletOwnerType) IsValid() bool {
	for _, candidate := range validWalletOwnerTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletOwnerType converts raw input into a WalletOwnerType.
func ParseWalletOwnerType(value string) (WalletOwnerType, error) {
	for _, candidate := range validWalletOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet owner type %q", value)
}
