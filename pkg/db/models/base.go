package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID gives rows a client-side UUID so inserts never depend on a
// database-side default.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Customer) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Address) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *Vendor) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *Courier) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *Product) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *CartLine) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Coupon) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *OrderGroup) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *Order) BeforeCreate(*gorm.DB) error             { assignID(&m.ID); return nil }
func (m *OrderItem) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *VendorPickup) BeforeCreate(*gorm.DB) error      { assignID(&m.ID); return nil }
func (m *DeliveryOTP) BeforeCreate(*gorm.DB) error       { assignID(&m.ID); return nil }
func (m *Wallet) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *WalletTransaction) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *CashoutRequest) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *BankAccount) BeforeCreate(*gorm.DB) error       { assignID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error       { assignID(&m.ID); return nil }
func (m *OutboxDLQ) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
