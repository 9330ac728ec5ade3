package verification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
)

// Repository reads verification flags.
type Repository interface {
	CourierStatus(ctx context.Context, id uuid.UUID) (Status, error)
	VendorStatus(ctx context.Context, id uuid.UUID) (Status, error)
	FindBankAccount(ctx context.Context, id uuid.UUID) (*models.BankAccount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a verification repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CourierStatus(ctx context.Context, id uuid.UUID) (Status, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).Select("id", "is_admin_verified", "is_kyc_approved").Where("id = ?", id).First(&courier).Error; err != nil {
		return Status{}, err
	}
	return Status{AdminVerified: courier.IsAdminVerified, KYCApproved: courier.IsKYCApproved}, nil
}

func (r *repository) VendorStatus(ctx context.Context, id uuid.UUID) (Status, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Select("id", "is_admin_verified", "is_kyc_approved").Where("id = ?", id).First(&vendor).Error; err != nil {
		return Status{}, err
	}
	return Status{AdminVerified: vendor.IsAdminVerified, KYCApproved: vendor.IsKYCApproved}, nil
}

func (r *repository) FindBankAccount(ctx context.Context, id uuid.UUID) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
