// Package cashout moves money out of vendor and courier wallets through an
// admin-driven settlement flow. Funds are held at request time so concurrent
// requests can never spend the same balance twice.
package cashout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/ledger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/angelmondragon/bazaarlink-backend/pkg/logger"
	"github.com/angelmondragon/bazaarlink-backend/pkg/metrics"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox"
	"github.com/angelmondragon/bazaarlink-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	EnsureWalletTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	PostTx(ctx context.Context, tx *gorm.DB, input ledger.PostingInput) (*models.WalletTransaction, error)
	GetWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
}

type ownerGate interface {
	RequireVerified(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) error
	RequireVerifiedBankAccount(ctx context.Context, ownerType enums.WalletOwnerType, ownerID, bankAccountID uuid.UUID) (*models.BankAccount, error)
}

// Service runs the cashout lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.CashoutRequest, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType, params pagination.Params) (*Page, error)
	ListForAdmin(ctx context.Context, status *enums.CashoutStatus, params pagination.Params) (*Page, error)
	Approve(ctx context.Context, input AdminInput) (*models.CashoutRequest, error)
	Reject(ctx context.Context, input RejectInput) (*models.CashoutRequest, error)
	MarkTransferred(ctx context.Context, input TransferInput) (*models.CashoutRequest, error)
	Complete(ctx context.Context, input AdminInput) (*models.CashoutRequest, error)
	Cancel(ctx context.Context, input CancelInput) (*models.CashoutRequest, error)
}

// CreateInput requests a withdrawal to a verified bank account.
type CreateInput struct {
	OwnerID       uuid.UUID
	OwnerType     enums.WalletOwnerType
	BankAccountID uuid.UUID
	AmountPaise   int64
}

// AdminInput identifies an admin action on a cashout.
type AdminInput struct {
	CashoutID   uuid.UUID
	ActorUserID uuid.UUID
}

// RejectInput declines a cashout and releases its hold.
type RejectInput struct {
	CashoutID   uuid.UUID
	ActorUserID uuid.UUID
	Reason      string
}

// TransferInput records the payment rail reference of an outgoing transfer.
type TransferInput struct {
	CashoutID   uuid.UUID
	ActorUserID uuid.UUID
	Reference   string
}

// CancelInput withdraws a pending request on behalf of its requester.
type CancelInput struct {
	CashoutID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// Page is a cursor-paginated list of cashout requests, newest first.
type Page struct {
	Requests   []models.CashoutRequest
	NextCursor string
}

// Options are the settlement policy knobs.
type Options struct {
	MinimumPaise         int64
	RequireOwnerVerified bool
}

// ServiceParams groups the collaborators of the cashout service.
type ServiceParams struct {
	Tx       txRunner
	Repo     Repository
	Ledger   walletLedger
	Verifier ownerGate
	Outbox   outboxPublisher
	Metrics  *metrics.DomainMetrics
	Logger   *logger.Logger
	Options  Options
}

var allowedTransitions = map[enums.CashoutStatus][]enums.CashoutStatus{
	enums.CashoutStatusPending:     {enums.CashoutStatusApproved, enums.CashoutStatusRejected, enums.CashoutStatusCancelled},
	enums.CashoutStatusApproved:    {enums.CashoutStatusTransferred, enums.CashoutStatusRejected},
	enums.CashoutStatusTransferred: {enums.CashoutStatusCompleted},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to enums.CashoutStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

type service struct {
	tx       txRunner
	repo     Repository
	ledger   walletLedger
	verifier ownerGate
	outbox   outboxPublisher
	metrics  *metrics.DomainMetrics
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService wires the cashout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("cashout repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("verification gate required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Options.MinimumPaise <= 0 {
		return nil, fmt.Errorf("cashout minimum must be positive")
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		ledger:   params.Ledger,
		verifier: params.Verifier,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		opts:     params.Options,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.CashoutRequest, error) {
	if input.OwnerID == uuid.Nil || input.BankAccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner and bank account ids are required")
	}
	if !input.OwnerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet owner type %q", input.OwnerType))
	}
	if input.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.AmountPaise < s.opts.MinimumPaise {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimum, "cashout amount is below the minimum").
			WithDetails(map[string]any{
				"amount_paise":  input.AmountPaise,
				"minimum_paise": s.opts.MinimumPaise,
			})
	}
	if _, err := s.verifier.RequireVerifiedBankAccount(ctx, input.OwnerType, input.OwnerID, input.BankAccountID); err != nil {
		return nil, err
	}
	if s.opts.RequireOwnerVerified {
		if err := s.verifier.RequireVerified(ctx, input.OwnerType, input.OwnerID); err != nil {
			return nil, err
		}
	}

	var request *models.CashoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		wallet, err := s.ledger.EnsureWalletTx(ctx, tx, input.OwnerID, input.OwnerType)
		if err != nil {
			return err
		}
		request = &models.CashoutRequest{
			WalletID:      wallet.ID,
			BankAccountID: input.BankAccountID,
			AmountPaise:   input.AmountPaise,
			Status:        enums.CashoutStatusPending,
			RequestedBy:   input.OwnerID,
			RequestedAt:   s.now().UTC(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create cashout request")
		}
		cashoutID := request.ID
		if _, err := s.ledger.PostTx(ctx, tx, ledger.PostingInput{
			WalletID:    wallet.ID,
			Type:        enums.WalletTxnTypeDebit,
			Bucket:      enums.WalletBucketAvailable,
			Kind:        enums.WalletTxnKindCashoutHold,
			AmountPaise: input.AmountPaise,
			Description: "Cashout hold",
			CashoutID:   &cashoutID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCashoutRequested,
			AggregateType: enums.AggregateCashout,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID, Role: string(input.OwnerType)},
			Data: payloads.CashoutRequestedEvent{
				CashoutID:   request.ID,
				WalletID:    wallet.ID,
				AmountPaise: input.AmountPaise,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "create cashout")
	}
	s.metrics.IncCashoutTransition(string(enums.CashoutStatusPending))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cashout_id":   request.ID,
		"wallet_id":    request.WalletID,
		"amount_paise": request.AmountPaise,
	}), "cashout requested")
	return request, nil
}

func (s *service) ListForOwner(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	wallet, err := s.ledger.GetWallet(ctx, ownerID, ownerType)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByWallet(ctx, wallet.ID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cashouts")
	}
	return newPage(rows, params.Limit), nil
}

func (s *service) ListForAdmin(ctx context.Context, status *enums.CashoutStatus, params pagination.Params) (*Page, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cashout status %q", *status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByStatus(ctx, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cashouts")
	}
	return newPage(rows, params.Limit), nil
}

func newPage(rows []models.CashoutRequest, limit int) *Page {
	page, next := pagination.Page(rows, limit, func(r models.CashoutRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &Page{Requests: page, NextCursor: next}
}

func (s *service) Approve(ctx context.Context, input AdminInput) (*models.CashoutRequest, error) {
	return s.transition(ctx, transitionSpec{
		cashoutID: input.CashoutID,
		actorID:   input.ActorUserID,
		role:      enums.UserRoleAdmin,
		to:        enums.CashoutStatusApproved,
	})
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.CashoutRequest, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.transition(ctx, transitionSpec{
		cashoutID: input.CashoutID,
		actorID:   input.ActorUserID,
		role:      enums.UserRoleAdmin,
		to:        enums.CashoutStatusRejected,
		reason:    &reason,
		extra:     map[string]any{"rejection_reason": reason},
		release:   true,
	})
}

func (s *service) MarkTransferred(ctx context.Context, input TransferInput) (*models.CashoutRequest, error) {
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer reference is required")
	}
	return s.transition(ctx, transitionSpec{
		cashoutID: input.CashoutID,
		actorID:   input.ActorUserID,
		role:      enums.UserRoleAdmin,
		to:        enums.CashoutStatusTransferred,
		extra:     map[string]any{"transfer_reference": reference},
	})
}

func (s *service) Complete(ctx context.Context, input AdminInput) (*models.CashoutRequest, error) {
	return s.transition(ctx, transitionSpec{
		cashoutID: input.CashoutID,
		actorID:   input.ActorUserID,
		role:      enums.UserRoleAdmin,
		to:        enums.CashoutStatusCompleted,
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.CashoutRequest, error) {
	return s.transition(ctx, transitionSpec{
		cashoutID:     input.CashoutID,
		actorID:       input.ActorUserID,
		role:          input.ActorRole,
		to:            enums.CashoutStatusCancelled,
		release:       true,
		requesterOnly: true,
	})
}

type transitionSpec struct {
	cashoutID     uuid.UUID
	actorID       uuid.UUID
	role          enums.UserRole
	to            enums.CashoutStatus
	reason        *string
	extra         map[string]any
	release       bool
	requesterOnly bool
}

func (s *service) transition(ctx context.Context, spec transitionSpec) (*models.CashoutRequest, error) {
	if spec.cashoutID == uuid.Nil || spec.actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashout and actor ids are required")
	}

	var (
		result  *models.CashoutRequest
		from    enums.CashoutStatus
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.Find(ctx, spec.cashoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cashout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cashout")
		}
		if spec.requesterOnly && request.RequestedBy != spec.actorID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cashout not found")
		}
		if request.Status == spec.to {
			result = request
			return nil
		}
		if !CanTransition(request.Status, spec.to) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cashout cannot move from %s to %s", request.Status, spec.to)).
				WithDetails(map[string]any{"from": request.Status, "to": spec.to})
		}

		from = request.Status
		applied, err := repo.Transition(ctx, request.ID, from, spec.to, s.now().UTC(), spec.extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update cashout status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cashout changed concurrently")
		}
		if spec.release {
			cashoutID := request.ID
			if _, err := s.ledger.PostTx(ctx, tx, ledger.PostingInput{
				WalletID:    request.WalletID,
				Type:        enums.WalletTxnTypeCredit,
				Bucket:      enums.WalletBucketAvailable,
				Kind:        enums.WalletTxnKindCashoutRelease,
				AmountPaise: request.AmountPaise,
				Description: fmt.Sprintf("Cashout %s released", spec.to),
				CashoutID:   &cashoutID,
			}); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCashoutStatusChanged,
			AggregateType: enums.AggregateCashout,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: spec.actorID, Role: string(spec.role)},
			Data: payloads.CashoutStatusChangedEvent{
				CashoutID:   request.ID,
				WalletID:    request.WalletID,
				AmountPaise: request.AmountPaise,
				From:        from,
				To:          spec.to,
				Reason:      spec.reason,
			},
		}); err != nil {
			return err
		}

		result, err = repo.Find(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "reload cashout")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update cashout")
	}
	if changed {
		s.metrics.IncCashoutTransition(string(spec.to))
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"cashout_id": result.ID,
			"from":       from,
			"to":         spec.to,
		}), "cashout status changed")
	}
	return result, nil
}
