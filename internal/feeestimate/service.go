// Package feeestimate prices delivery legs from vendor and address coordinates.
package feeestimate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// VendorLocator loads the coordinates of the vendors in a cart.
type VendorLocator interface {
	VendorsByID(ctx context.Context, ids []uuid.UUID) ([]models.Vendor, error)
}

// Service estimates per-vendor delivery fees for a drop-off address.
type Service interface {
	Lookup(ctx context.Context, vendorIDs []uuid.UUID, address models.Address) (pricing.FeeLookup, error)
}

type service struct {
	vendors   VendorLocator
	policy    pricing.FeePolicy
	maxRadius float64
}

// NewService builds an estimator using the configured distance policy.
func NewService(vendors VendorLocator, cfg config.CheckoutConfig) (Service, error) {
	if vendors == nil {
		return nil, fmt.Errorf("vendor locator required")
	}
	return &service{
		vendors:   vendors,
		policy:    pricing.FeePolicy{BasePaise: cfg.BaseFeePaise, PerKmPaise: cfg.PerKmFeePaise},
		maxRadius: cfg.MaxDeliveryRadiusKm,
	}, nil
}

// Lookup quotes every vendor it can locate. Vendors without coordinates are
// left out so the caller applies its fallback.
func (s *service) Lookup(ctx context.Context, vendorIDs []uuid.UUID, address models.Address) (pricing.FeeLookup, error) {
	lookup := pricing.FeeLookup{}
	if len(vendorIDs) == 0 || address.Lat == nil || address.Lng == nil {
		return lookup, nil
	}
	vendors, err := s.vendors.VendorsByID(ctx, vendorIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor locations")
	}
	for _, vendor := range vendors {
		if vendor.Lat == nil || vendor.Lng == nil {
			continue
		}
		km := pricing.RoundKm(pricing.HaversineKm(*vendor.Lat, *vendor.Lng, *address.Lat, *address.Lng))
		if s.maxRadius > 0 && km > s.maxRadius {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is outside the vendor delivery radius").
				WithDetails(map[string]any{"vendor_id": vendor.ID, "distance_km": km})
		}
		lookup[vendor.ID] = pricing.FeeQuote{FeePaise: s.policy.DeliveryFee(km), DistanceKm: km}
	}
	return lookup, nil
}

// Repository reads vendor coordinates.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the locator to a database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) VendorsByID(ctx context.Context, ids []uuid.UUID) ([]models.Vendor, error) {
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).
		Select("id", "lat", "lng").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
