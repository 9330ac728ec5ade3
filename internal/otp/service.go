// Package otp issues and validates the handover codes a customer reads out to
// the courier at delivery.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/config"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/security"
)

// Limiter is the fixed-window counter guarding validation attempts.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service issues codes to customers and validates codes presented by couriers.
type Service interface {
	Issue(ctx context.Context, customerID, orderID uuid.UUID) (*IssuedCode, error)
	Validate(ctx context.Context, orderID uuid.UUID, code string) (bool, error)
}

// IssuedCode is returned once; only the hash is stored.
type IssuedCode struct {
	OrderID   uuid.UUID
	Code      string
	ExpiresAt time.Time
}

type service struct {
	repo    Repository
	limiter Limiter
	cfg     config.OTPConfig
	now     func() time.Time
}

// NewService wires the OTP service.
func NewService(repo Repository, limiter Limiter, cfg config.OTPConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("otp limiter required")
	}
	if cfg.Length <= 0 {
		return nil, fmt.Errorf("otp length must be positive")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	return &service{repo: repo, limiter: limiter, cfg: cfg, now: time.Now}, nil
}

func (s *service) Issue(ctx context.Context, customerID, orderID uuid.UUID) (*IssuedCode, error) {
	if customerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer and order ids are required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	owner, err := s.repo.FindGroupCustomer(ctx, order.GroupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order group")
	}
	if owner != customerID {
		// Other customers' orders are indistinguishable from missing ones.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("order is %s", order.Status)).
			WithDetails(map[string]any{"status": order.Status})
	}

	code, err := security.GenerateNumericCode(s.cfg.Length)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	hash, err := security.HashCode(code, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp")
	}
	expiresAt := s.now().UTC().Add(s.cfg.TTL)
	if err := s.repo.Upsert(ctx, &models.DeliveryOTP{OrderID: orderID, CodeHash: hash, ExpiresAt: expiresAt}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store otp")
	}
	return &IssuedCode{OrderID: orderID, Code: code, ExpiresAt: expiresAt}, nil
}

func (s *service) Validate(ctx context.Context, orderID uuid.UUID, code string) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if code == "" {
		return false, nil
	}
	if err := s.checkAttempts(ctx, orderID); err != nil {
		return false, err
	}

	stored, err := s.repo.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load otp")
	}
	if !s.now().Before(stored.ExpiresAt) {
		return false, nil
	}
	ok, err := security.VerifyCode(code, stored.CodeHash)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify otp")
	}
	return ok, nil
}

func (s *service) checkAttempts(ctx context.Context, orderID uuid.UUID) error {
	limit := s.cfg.AttemptLimit
	if limit <= 0 {
		return nil
	}
	window := s.cfg.AttemptWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "otp:"+orderID.String(), int64(limit), window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "otp attempt limiter")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many otp attempts")
	}
	return nil
}
