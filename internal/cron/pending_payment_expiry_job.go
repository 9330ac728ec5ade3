package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

const (
	defaultPendingPaymentTTL   = 30 * time.Minute
	defaultPendingPaymentBatch = 100
)

// PendingPaymentExpiryJobParams configure the stale online payment sweep.
type PendingPaymentExpiryJobParams struct {
	Logger    *logger.Logger
	Expirer   stalePaymentExpirer
	TTL       time.Duration
	BatchSize int
}

type stalePaymentExpirer interface {
	ExpireStalePayments(ctx context.Context, before time.Time, limit int) (int, error)
}

// NewPendingPaymentExpiryJob fails order groups whose online payment stayed
// pending longer than the TTL, cancelling their orders.
func NewPendingPaymentExpiryJob(params PendingPaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("payment expirer required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultPendingPaymentBatch
	}
	return &pendingPaymentExpiryJob{
		logg:    params.Logger,
		expirer: params.Expirer,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type pendingPaymentExpiryJob struct {
	logg    *logger.Logger
	expirer stalePaymentExpirer
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *pendingPaymentExpiryJob) Name() string { return "pending-payment-expiry" }

func (j *pendingPaymentExpiryJob) Run(ctx context.Context) error {
	before := j.now().UTC().Add(-j.ttl)
	expired, err := j.expirer.ExpireStalePayments(ctx, before, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"before":         before,
		"groups_expired": expired,
	})
	if err != nil {
		return fmt.Errorf("expire stale payments: %w", err)
	}
	j.logg.Info(logCtx, "pending payment sweep complete")
	return nil
}
