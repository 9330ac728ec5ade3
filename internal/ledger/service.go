package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

// Service exposes the wallet ledger. Every balance mutation goes through a
// posting that writes the transaction row and the materialized balance in
// the same database transaction.
type Service interface {
	EnsureWalletTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	PostTx(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.WalletTransaction, error)
	Post(ctx context.Context, input PostingInput) (*models.WalletTransaction, error)
	GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*TransactionPage, error)
	ReleasePending(ctx context.Context, input ReleaseInput) (*models.Wallet, error)
	Reconcile(ctx context.Context, walletID uuid.UUID) (*ReconcileResult, error)
	ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PostingInput describes a single ledger posting.
type PostingInput struct {
	WalletID    uuid.UUID
	Type        enums.WalletTxnType
	Bucket      enums.WalletBucket
	Kind        enums.WalletTxnKind
	AmountPaise int64
	Description string
	OrderID     *uuid.UUID
	CashoutID   *uuid.UUID
}

// ReleaseInput moves held vendor earnings into the spendable bucket.
type ReleaseInput struct {
	WalletID    uuid.UUID
	AmountPaise int64
	ActorUserID uuid.UUID
}

// TransactionPage is a cursor-paginated slice of postings, newest first.
type TransactionPage struct {
	Transactions []models.WalletTransaction
	NextCursor   string
}

// ReconcileResult compares a wallet's materialized balances with the fold of its postings.
type ReconcileResult struct {
	WalletID     uuid.UUID
	Materialized Balances
	Folded       Balances
}

// Drifted reports whether any bucket disagrees with the ledger.
func (r ReconcileResult) Drifted() bool {
	return r.Materialized != r.Folded
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.DomainMetrics
	logg    *logger.Logger
}

// NewService wires the ledger service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, m *metrics.DomainMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, metrics: m, logg: logg}, nil
}

func (s *service) EnsureWalletTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if !ownerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet owner type %q", ownerType))
	}
	wallet, err := s.repo.WithTx(tx).EnsureWallet(ctx, ownerID, ownerType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "ensure wallet")
	}
	return wallet, nil
}

func (s *service) PostTx(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validatePosting(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	var (
		applied bool
		err     error
	)
	switch input.Type {
	case enums.WalletTxnTypeCredit:
		applied, err = repo.Credit(ctx, input.WalletID, input.Bucket, input.AmountPaise, isEarning(input.Kind))
	case enums.WalletTxnTypeDebit:
		applied, err = repo.Debit(ctx, input.WalletID, input.Bucket, input.AmountPaise)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update wallet balance")
	}
	if !applied {
		if _, lookupErr := repo.FindWalletByID(ctx, input.WalletID); lookupErr != nil {
			if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, lookupErr, "load wallet")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance").
			WithDetails(map[string]any{"bucket": input.Bucket, "amount_paise": input.AmountPaise})
	}

	txn := &models.WalletTransaction{
		WalletID:    input.WalletID,
		Type:        input.Type,
		Bucket:      input.Bucket,
		Kind:        input.Kind,
		AmountPaise: input.AmountPaise,
		Description: input.Description,
		OrderID:     input.OrderID,
		CashoutID:   input.CashoutID,
	}
	if err := repo.InsertTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert wallet transaction")
	}
	s.metrics.IncWalletPosting(string(input.Type), string(input.Bucket))
	return txn, nil
}

func (s *service) Post(ctx context.Context, input PostingInput) (*models.WalletTransaction, error) {
	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		txn, err = s.PostTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "post wallet transaction")
	}
	return txn, nil
}

func (s *service) GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		wallet, err = s.EnsureWalletTx(ctx, tx, ownerID, ownerType)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.repo.FindWalletByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) ListTransactions(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListTransactions(ctx, walletID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	page, next := pagination.Page(rows, params.Limit, func(t models.WalletTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	return &TransactionPage{Transactions: page, NextCursor: next}, nil
}

func (s *service) ReleasePending(ctx context.Context, input ReleaseInput) (*models.Wallet, error) {
	if input.WalletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var wallet *models.Wallet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.PostTx(ctx, tx, PostingInput{
			WalletID:    input.WalletID,
			Type:        enums.WalletTxnTypeDebit,
			Bucket:      enums.WalletBucketPending,
			Kind:        enums.WalletTxnKindPendingRelease,
			AmountPaise: input.AmountPaise,
			Description: "pending earnings released",
		}); err != nil {
			return err
		}
		if _, err := s.PostTx(ctx, tx, PostingInput{
			WalletID:    input.WalletID,
			Type:        enums.WalletTxnTypeCredit,
			Bucket:      enums.WalletBucketAvailable,
			Kind:        enums.WalletTxnKindPendingRelease,
			AmountPaise: input.AmountPaise,
			Description: "pending earnings released",
		}); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventWalletPendingReleased,
			AggregateType: enums.AggregateWallet,
			AggregateID:   input.WalletID,
			Data: payloads.WalletPendingReleasedEvent{
				WalletID:    input.WalletID,
				AmountPaise: input.AmountPaise,
			},
		}
		if input.ActorUserID != uuid.Nil {
			event.Actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: string(enums.UserRoleAdmin)}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "emit pending release event")
		}

		var err error
		wallet, err = s.repo.WithTx(tx).FindWalletByID(ctx, input.WalletID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "reload wallet")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "release pending earnings")
	}
	return wallet, nil
}

func (s *service) Reconcile(ctx context.Context, walletID uuid.UUID) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := repo.FindWalletByID(ctx, walletID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
		folded, err := repo.FoldBalances(ctx, walletID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fold wallet transactions")
		}
		result = &ReconcileResult{
			WalletID: walletID,
			Materialized: Balances{
				AvailablePaise:        wallet.AvailableBalancePaise,
				PendingPaise:          wallet.PendingBalancePaise,
				LifetimeEarningsPaise: wallet.LifetimeEarningsPaise,
			},
			Folded: folded,
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "reconcile wallet")
	}
	if result.Drifted() {
		s.metrics.IncWalletDrift()
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"wallet_id":              walletID.String(),
				"materialized_available": result.Materialized.AvailablePaise,
				"folded_available":       result.Folded.AvailablePaise,
				"materialized_pending":   result.Materialized.PendingPaise,
				"folded_pending":         result.Folded.PendingPaise,
			})
			s.logg.Warn(logCtx, "wallet balance drift detected")
		}
	}
	return result, nil
}

func (s *service) ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids, err := s.repo.ListWalletIDs(ctx, after, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallets")
	}
	return ids, nil
}

func validatePosting(input PostingInput) error {
	if input.WalletID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if !input.Bucket.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet bucket %q", input.Bucket))
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
	}
	if input.AmountPaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return nil
}
