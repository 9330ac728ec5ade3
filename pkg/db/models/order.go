package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
)

// OrderGroup ties together the per-vendor orders produced by one checkout.
type OrderGroup struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	AddressID        uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	CouponCode       *string             `gorm:"column:coupon_code"`
	SubtotalPaise    int64               `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise int64               `gorm:"column:delivery_fee_paise;not null"`
	TaxPaise         int64               `gorm:"column:tax_paise;not null"`
	DiscountPaise    int64               `gorm:"column:discount_paise;not null;default:0"`
	TotalPaise       int64               `gorm:"column:total_paise;not null"`
	Orders           []Order             `gorm:"foreignKey:GroupID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Order is a single vendor's share of an order group, fulfilled by one courier.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	GroupID          uuid.UUID         `gorm:"column:group_id;type:uuid;not null;index"`
	VendorID         uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	AddressID        uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'unassigned'"`
	CourierID        *uuid.UUID        `gorm:"column:courier_id;type:uuid;index"`
	SubtotalPaise    int64             `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise int64             `gorm:"column:delivery_fee_paise;not null"`
	DistanceKm       float64           `gorm:"column:distance_km;not null"`
	TaxPaise         int64             `gorm:"column:tax_paise;not null"`
	DiscountPaise    int64             `gorm:"column:discount_paise;not null;default:0"`
	TotalPaise       int64             `gorm:"column:total_paise;not null"`
	ItemCount        int               `gorm:"column:item_count;not null"`
	PayoutPaise      int64             `gorm:"column:payout_paise;not null"`
	FeeFallback      bool              `gorm:"column:fee_fallback;not null;default:false"`
	AssignedAt       *time.Time        `gorm:"column:assigned_at"`
	PickedUpAt       *time.Time        `gorm:"column:picked_up_at"`
	OutForDeliveryAt *time.Time        `gorm:"column:out_for_delivery_at"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID"`
	Pickups          []VendorPickup    `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a priced line on an order. VendorID keys the pickup leg the
// item belongs to.
type OrderItem struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VendorID           uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null"`
	UnitPricePaise     int64      `gorm:"column:unit_price_paise;not null"`
	DiscountPricePaise *int64     `gorm:"column:discount_price_paise"`
	Quantity           int        `gorm:"column:quantity;not null"`
	LineTotalPaise     int64      `gorm:"column:line_total_paise;not null"`
	Collected          bool       `gorm:"column:collected;not null;default:false"`
	CollectedAt        *time.Time `gorm:"column:collected_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorPickup records the courier's confirmation that one vendor leg of an
// order has been fully collected.
type VendorPickup struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_vendor_pickups_order_vendor"`
	VendorID    uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_pickups_order_vendor"`
	Collected   bool       `gorm:"column:collected;not null;default:false"`
	CollectedAt *time.Time `gorm:"column:collected_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryOTP holds the hashed handover code for an order.
type DeliveryOTP struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CodeHash  string    `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
