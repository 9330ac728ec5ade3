// Package coupons resolves group-level discounts at checkout.
package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// Repository loads coupons by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Service applies a coupon to group totals.
type Service interface {
	Discount(ctx context.Context, code string, subtotalPaise, deliveryFeePaise int64) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the coupon resolver.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Discount returns zero for an empty code.
func (s *service) Discount(ctx context.Context, code string, subtotalPaise, deliveryFeePaise int64) (int64, error) {
	code = NormalizeCode(code)
	if code == "" {
		return 0, nil
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return Apply(*coupon, subtotalPaise, deliveryFeePaise, s.now())
}

// Apply computes the discount a coupon grants. The result never exceeds
// the amount it discounts.
func Apply(coupon models.Coupon, subtotalPaise, deliveryFeePaise int64, now time.Time) (int64, error) {
	if !coupon.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if subtotalPaise < coupon.MinSubtotalPaise {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order subtotal is below the coupon minimum").
			WithDetails(map[string]any{"min_subtotal_paise": coupon.MinSubtotalPaise})
	}

	var discount int64
	switch coupon.Type {
	case enums.CouponTypePercentage:
		discount = pricing.BasisPoints(subtotalPaise, coupon.ValueBPS)
		if coupon.MaxDiscountPaise != nil && discount > *coupon.MaxDiscountPaise {
			discount = *coupon.MaxDiscountPaise
		}
	case enums.CouponTypeFlat:
		discount = min(coupon.ValuePaise, subtotalPaise)
	case enums.CouponTypeFreeDelivery:
		discount = deliveryFeePaise
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported coupon type %q", coupon.Type))
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

// NormalizeCode uppercases and trims a customer supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds coupon lookups to a database handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}
