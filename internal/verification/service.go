// Package verification exposes the read-only trust gates consulted before a
// courier takes an order or an owner withdraws funds.
package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// Status mirrors the admin and KYC flags of a courier or vendor.
type Status struct {
	AdminVerified bool
	KYCApproved   bool
}

// Verified reports whether both gates are open.
func (s Status) Verified() bool {
	return s.AdminVerified && s.KYCApproved
}

// Service answers verification questions without mutating anything.
type Service interface {
	Status(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (Status, error)
	RequireVerified(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) error
	RequireVerifiedBankAccount(ctx context.Context, ownerType enums.WalletOwnerType, ownerID, bankAccountID uuid.UUID) (*models.BankAccount, error)
}

type service struct {
	repo Repository
}

// NewService builds the verification gate service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("verification repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Status(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (Status, error) {
	if ownerID == uuid.Nil {
		return Status{}, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	var (
		status Status
		err    error
	)
	switch ownerType {
	case enums.WalletOwnerTypeCourier:
		status, err = s.repo.CourierStatus(ctx, ownerID)
	case enums.WalletOwnerTypeVendor:
		status, err = s.repo.VendorStatus(ctx, ownerID)
	default:
		return Status{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid owner type %q", ownerType))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Status{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", ownerType))
		}
		return Status{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load verification status")
	}
	return status, nil
}

func (s *service) RequireVerified(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) error {
	status, err := s.Status(ctx, ownerType, ownerID)
	if err != nil {
		return err
	}
	if !status.Verified() {
		return pkgerrors.New(pkgerrors.CodeNotVerified, fmt.Sprintf("%s is not verified", ownerType)).
			WithDetails(map[string]any{
				"is_admin_verified": status.AdminVerified,
				"is_kyc_approved":   status.KYCApproved,
			})
	}
	return nil
}

func (s *service) RequireVerifiedBankAccount(ctx context.Context, ownerType enums.WalletOwnerType, ownerID, bankAccountID uuid.UUID) (*models.BankAccount, error) {
	if ownerID == uuid.Nil || bankAccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner and bank account ids are required")
	}
	account, err := s.repo.FindBankAccount(ctx, bankAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bank account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bank account")
	}
	if account.OwnerID != ownerID || account.OwnerType != string(ownerType) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bank account not found")
	}
	if !account.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnverifiedBankAccount, "bank account is not verified")
	}
	return account, nil
}
