package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
)

const defaultFallbackAuditWindow = 24 * time.Hour

// FallbackFeeAuditJobParams configure the fallback delivery fee audit.
type FallbackFeeAuditJobParams struct {
	Logger  *logger.Logger
	Counter fallbackOrderCounter
	Window  time.Duration
}

type fallbackOrderCounter interface {
	CountFallbackOrders(ctx context.Context, since time.Time) (int64, error)
}

// NewFallbackFeeAuditJob reports how many orders were priced with the fallback
// delivery fee during the last window.
func NewFallbackFeeAuditJob(params FallbackFeeAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Counter == nil {
		return nil, fmt.Errorf("fallback order counter required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultFallbackAuditWindow
	}
	return &fallbackFeeAuditJob{
		logg:    params.Logger,
		counter: params.Counter,
		window:  window,
		now:     time.Now,
	}, nil
}

type fallbackFeeAuditJob struct {
	logg    *logger.Logger
	counter fallbackOrderCounter
	window  time.Duration
	now     func() time.Time
}

func (j *fallbackFeeAuditJob) Name() string { return "fallback-fee-audit" }

func (j *fallbackFeeAuditJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.window)
	count, err := j.counter.CountFallbackOrders(ctx, since)
	if err != nil {
		return fmt.Errorf("count fallback orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"since":           since,
		"fallback_orders": count,
	})
	if count > 0 {
		j.logg.Warn(logCtx, "orders priced with fallback delivery fee need reconciliation")
		return nil
	}
	j.logg.Info(logCtx, "no fallback-priced orders in window")
	return nil
}
