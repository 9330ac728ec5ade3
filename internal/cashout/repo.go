package cashout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/repo"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

// Repository persists cashout requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.CashoutRequest) error
	Find(ctx context.Context, id uuid.UUID) (*models.CashoutRequest, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CashoutRequest, error)
	ListByStatus(ctx context.Context, status *enums.CashoutStatus, cursor *pagination.Cursor, limit int) ([]models.CashoutRequest, error)
	Transition(ctx context.Context, id uuid.UUID, from, to enums.CashoutStatus, at time.Time, extra map[string]any) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a cashout repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, request *models.CashoutRequest) error {
	return r.DB(ctx).Create(request).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.CashoutRequest, error) {
	var request models.CashoutRequest
	if err := r.DB(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByWallet(ctx context.Context, walletID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.CashoutRequest, error) {
	return r.page(r.DB(ctx).Where("wallet_id = ?", walletID), cursor, limit)
}

func (r *repository) ListByStatus(ctx context.Context, status *enums.CashoutStatus, cursor *pagination.Cursor, limit int) ([]models.CashoutRequest, error) {
	query := r.DB(ctx).Model(&models.CashoutRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.page(query, cursor, limit)
}

func (r *repository) page(query *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.CashoutRequest, error) {
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.CashoutRequest
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Transition applies a compare-and-set on the request status.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.CashoutStatus, at time.Time, extra map[string]any) (bool, error) {
	column, err := timestampColumn(to)
	if err != nil {
		return false, err
	}
	updates := map[string]any{"status": to, column: at}
	for key, value := range extra {
		updates[key] = value
	}
	res := r.DB(ctx).
		Model(&models.CashoutRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return repo.SingleRow(res)
}

func timestampColumn(status enums.CashoutStatus) (string, error) {
	switch status {
	case enums.CashoutStatusApproved:
		return "approved_at", nil
	case enums.CashoutStatusTransferred:
		return "transferred_at", nil
	case enums.CashoutStatusCompleted:
		return "completed_at", nil
	case enums.CashoutStatusRejected:
		return "rejected_at", nil
	case enums.CashoutStatusCancelled:
		return "cancelled_at", nil
	default:
		return "", fmt.Errorf("no timestamp column for cashout status %q", status)
	}
}
