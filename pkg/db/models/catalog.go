package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// Product carries only the pricing data an order line needs.
type Product struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID           uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name               string    `gorm:"column:name;not null"`
	UnitPricePaise     int64     `gorm:"column:unit_price_paise;not null"`
	DiscountPricePaise *int64    `gorm:"column:discount_price_paise"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CartLine is a customer's pending purchase of a product.
type CartLine struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ux_cart_lines_customer_product"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_lines_customer_product"`
	VendorID           uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	UnitPricePaise     int64     `gorm:"column:unit_price_paise;not null"`
	DiscountPricePaise *int64    `gorm:"column:discount_price_paise"`
	Quantity           int       `gorm:"column:quantity;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Coupon is a group-level discount.
type Coupon struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Code             string           `gorm:"column:code;not null;uniqueIndex"`
	Type             enums.CouponType `gorm:"column:type;type:text;not null"`
	ValueBPS         int64            `gorm:"column:value_bps;not null;default:0"`
	ValuePaise       int64            `gorm:"column:value_paise;not null;default:0"`
	MaxDiscountPaise *int64           `gorm:"column:max_discount_paise"`
	MinSubtotalPaise int64            `gorm:"column:min_subtotal_paise;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	ExpiresAt        *time.Time       `gorm:"column:expires_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
