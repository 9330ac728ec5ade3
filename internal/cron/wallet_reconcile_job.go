package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
)

const defaultReconcileBatch = 200

// WalletReconcileJobParams configure the ledger drift report.
type WalletReconcileJobParams struct {
	Logger    *logger.Logger
	Ledger    walletReconciler
	Metrics   *metrics.DomainMetrics
	BatchSize int
}

type walletReconciler interface {
	ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
	Reconcile(ctx context.Context, walletID uuid.UUID) (*ledger.ReconcileResult, error)
}

// NewWalletReconcileJob folds every wallet's postings and reports wallets
// whose materialized balances disagree with their ledger.
func NewWalletReconcileJob(params WalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &walletReconcileJob{
		logg:    params.Logger,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		batch:   batch,
	}, nil
}

type walletReconcileJob struct {
	logg    *logger.Logger
	ledger  walletReconciler
	metrics *metrics.DomainMetrics
	batch   int
}

func (j *walletReconcileJob) Name() string { return "wallet-reconcile" }

func (j *walletReconcileJob) Run(ctx context.Context) error {
	var (
		after   uuid.UUID
		checked int
		drifted int
		errs    error
	)
	for {
		ids, err := j.ledger.ListWalletIDs(ctx, after, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list wallets: %w", err))
		}
		for _, id := range ids {
			result, err := j.ledger.Reconcile(ctx, id)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reconcile wallet %s: %w", id, err))
				continue
			}
			checked++
			if result.Drifted() {
				drifted++
				j.metrics.IncWalletDrift()
				j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
					"wallet_id":              id,
					"available_paise":        result.Materialized.AvailablePaise,
					"ledger_available_paise": result.Folded.AvailablePaise,
					"pending_paise":          result.Materialized.PendingPaise,
					"ledger_pending_paise":   result.Folded.PendingPaise,
					"lifetime_paise":         result.Materialized.LifetimeEarningsPaise,
					"ledger_lifetime_paise":  result.Folded.LifetimeEarningsPaise,
				}), "wallet balance drifted from ledger")
			}
		}
		if len(ids) < j.batch {
			break
		}
		after = ids[len(ids)-1]
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"wallets_checked": checked,
		"wallets_drifted": drifted,
	}), "wallet reconciliation complete")
	if drifted > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%d wallets drifted from their ledger", drifted))
	}
	return errs
}
