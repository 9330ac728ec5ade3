package otp

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
)

// Repository stores hashed delivery codes, one per order.
type Repository interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindGroupCustomer(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error)
	Upsert(ctx context.Context, code *models.DeliveryOTP) error
	Find(ctx context.Context, orderID uuid.UUID) (*models.DeliveryOTP, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an OTP repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindGroupCustomer(ctx context.Context, groupID uuid.UUID) (uuid.UUID, error) {
	var group models.OrderGroup
	if err := r.db.WithContext(ctx).Select("id", "customer_id").Where("id = ?", groupID).First(&group).Error; err != nil {
		return uuid.Nil, err
	}
	return group.CustomerID, nil
}

// Upsert replaces any earlier code for the order so only the newest one validates.
func (r *repository) Upsert(ctx context.Context, code *models.DeliveryOTP) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "updated_at"}),
	}).Create(code).Error
}

func (r *repository) Find(ctx context.Context, orderID uuid.UUID) (*models.DeliveryOTP, error) {
	var code models.DeliveryOTP
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}
