package enums

import "fmt"

// WalletTxnType is the direction of a wallet posting.
type WalletTxnType string

const (
	WalletTxnTypeCredit WalletTxnType = "credit"
	WalletTxnTypeDebit  WalletTxnType = "debit"
)

var validWalletTxnTypes = []WalletTxnType{
	WalletTxnTypeCredit,
	WalletTxnTypeDebit,
}

// String implements fmt.Stringer.
func (v WalletTxnType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletTxnType.
func (v WalletTxnType) IsValid() bool {
	for _, candidate := range validWalletTxnTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletTxnType converts raw input into a WalletTxnType.
func ParseWalletTxnType(value string) (WalletTxnType, error) {
	for _, candidate := range validWalletTxnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

// WalletBucket selects which balance a posting moves.
type WalletBucket string

const (
	WalletBucketAvailable WalletBucket = "available"
	WalletBucketPending   WalletBucket = "pending"
)

var validWalletBuckets = []WalletBucket{
	WalletBucketAvailable,
	WalletBucketPending,
}

// String implements fmt.Stringer.
func (v WalletBucket) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletBucket.
func (v WalletBucket) IsValid() bool {
	for _, candidate := range validWalletBuckets {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletBucket converts raw input into a WalletBucket.
func ParseWalletBucket(value string) (WalletBucket, error) {
	for _, candidate := range validWalletBuckets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet bucket %q", value)
}

// WalletTxnKind classifies why a posting happened.
type WalletTxnKind string

const (
	WalletTxnKindDeliveryPayout WalletTxnKind = "delivery_payout"
	WalletTxnKindVendorEarning  WalletTxnKind = "vendor_earning"
	WalletTxnKindPendingRelease WalletTxnKind = "pending_release"
	WalletTxnKindCashoutHold    WalletTxnKind = "cashout_hold"
	WalletTxnKindCashoutRelease WalletTxnKind = "cashout_release"
	WalletTxnKindAdjustment     WalletTxnKind = "adjustment"
)

var validWalletTxnKinds = []WalletTxnKind{
	WalletTxnKindDeliveryPayout,
	WalletTxnKindVendorEarning,
	WalletTxnKindPendingRelease,
	WalletTxnKindCashoutHold,
	WalletTxnKindCashoutRelease,
	WalletTxnKindAdjustment,
}

// String implements fmt.Stringer.
func (v WalletTxnKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known WalletTxnKind.
func (v WalletTxnKind) IsValid() bool {
	for _, candidate := range validWalletTxnKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseWalletTxnKind converts raw input into a WalletTxnKind.
func ParseWalletTxnKind(value string) (WalletTxnKind, error) {
	for _, candidate := range validWalletTxnKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction kind %q", value)
}
