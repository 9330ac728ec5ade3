package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/testdb"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func TestApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		coupon   models.Coupon
		subtotal int64
		fee      int64
		want     int64
		code     pkgerrors.Code
	}{
		{name: "percentage", coupon: models.Coupon{Type: enums.CouponTypePercentage, ValueBPS: 1000, IsActive: true}, subtotal: 45050, want: 4505},
		{name: "percentage rounds half up", coupon: models.Coupon{Type: enums.CouponTypePercentage, ValueBPS: 1250, IsActive: true}, subtotal: 1004, want: 126},
		{name: "percentage capped", coupon: models.Coupon{Type: enums.CouponTypePercentage, ValueBPS: 5000, MaxDiscountPaise: int64Ptr(10000), IsActive: true}, subtotal: 100000, want: 10000},
		{name: "flat", coupon: models.Coupon{Type: enums.CouponTypeFlat, ValuePaise: 5000, IsActive: true}, subtotal: 20000, want: 5000},
		{name: "flat capped at subtotal", coupon: models.Coupon{Type: enums.CouponTypeFlat, ValuePaise: 5000, IsActive: true}, subtotal: 3000, want: 3000},
		{name: "free delivery", coupon: models.Coupon{Type: enums.CouponTypeFreeDelivery, IsActive: true, ExpiresAt: &future}, subtotal: 3000, fee: 6500, want: 6500},
		{name: "inactive", coupon: models.Coupon{Type: enums.CouponTypeFlat, ValuePaise: 100}, subtotal: 3000, code: pkgerrors.CodeValidation},
		{name: "expired", coupon: models.Coupon{Type: enums.CouponTypeFlat, ValuePaise: 100, IsActive: true, ExpiresAt: &past}, subtotal: 3000, code: pkgerrors.CodeValidation},
		{name: "below minimum", coupon: models.Coupon{Type: enums.CouponTypeFlat, ValuePaise: 100, MinSubtotalPaise: 50000, IsActive: true}, subtotal: 49999, code: pkgerrors.CodeValidation},
		{name: "unknown type", coupon: models.Coupon{Type: "bogo", IsActive: true}, subtotal: 3000, code: pkgerrors.CodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(tc.coupon, tc.subtotal, tc.fee, now)
			if tc.code != "" {
				if !pkgerrors.IsCode(err, tc.code) {
					t.Fatalf("expected %s, got %v", tc.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestDiscountLooksUpNormalizedCode(t *testing.T) {
	conn := testdb.Open(t)
	testdb.MustCreate(t, conn, &models.Coupon{Code: "DIWALI10", Type: enums.CouponTypePercentage, ValueBPS: 1000, IsActive: true})

	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	got, err := svc.Discount(context.Background(), "  diwali10 ", 20000, 3000)
	if err != nil {
		t.Fatalf("discount: %v", err)
	}
	if got != 2000 {
		t.Fatalf("expected 2000, got %d", got)
	}

	if got, err := svc.Discount(context.Background(), "", 20000, 3000); err != nil || got != 0 {
		t.Fatalf("empty code should be free of discount, got %d %v", got, err)
	}
	if _, err := svc.Discount(context.Background(), "NOPE", 20000, 3000); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown code, got %v", err)
	}
}
