package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the buyer placing order groups. Profile data lives with the
// identity provider; only what checkout needs is mirrored here.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a customer delivery location.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Line1      string    `gorm:"column:line1;not null"`
	City       string    `gorm:"column:city"`
	PostalCode string    `gorm:"column:postal_code"`
	Lat        *float64  `gorm:"column:lat"`
	Lng        *float64  `gorm:"column:lng"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Vendor sells products and receives earnings into a pending wallet bucket.
type Vendor struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Lat             *float64  `gorm:"column:lat"`
	Lng             *float64  `gorm:"column:lng"`
	IsAdminVerified bool      `gorm:"column:is_admin_verified;not null;default:false"`
	IsKYCApproved   bool      `gorm:"column:is_kyc_approved;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Courier delivers orders and is paid into an available wallet bucket.
type Courier struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	IsAdminVerified bool      `gorm:"column:is_admin_verified;not null;default:false"`
	IsKYCApproved   bool      `gorm:"column:is_kyc_approved;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BankAccount is owned by a vendor or courier and gates cashouts.
type BankAccount struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerType     string    `gorm:"column:owner_type;type:text;not null"`
	AccountNumber string    `gorm:"column:account_number;not null"`
	IFSC          string    `gorm:"column:ifsc;not null"`
	IsVerified    bool      `gorm:"column:is_verified;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
