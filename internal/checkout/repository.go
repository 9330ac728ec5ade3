package checkout

import (
	"context"
	"time"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists order groups and their vendor orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
	CreateGroup(ctx context.Context, group *models.OrderGroup) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindGroup(ctx context.Context, id uuid.UUID) (*models.OrderGroup, error)
	TransitionPayment(ctx context.Context, groupID uuid.UUID, from, to enums.PaymentStatus, reference *string) (bool, error)
	CancelUnassignedOrders(ctx context.Context, groupID uuid.UUID, at time.Time) ([]models.Order, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.OrderGroup, error)
	CountFallbackOrders(ctx context.Context, since time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) CreateGroup(ctx context.Context, group *models.OrderGroup) error {
	return r.db.WithContext(ctx).Omit("Orders").Create(group).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Pickups").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindGroup(ctx context.Context, id uuid.UUID) (*models.OrderGroup, error) {
	var group models.OrderGroup
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("order_number ASC") }).
		Preload("Orders.Items").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// TransitionPayment moves the payment status only if it still equals from.
func (r *repository) TransitionPayment(ctx context.Context, groupID uuid.UUID, from, to enums.PaymentStatus, reference *string) (bool, error) {
	updates := map[string]any{"payment_status": to}
	if reference != nil {
		updates["payment_reference"] = *reference
	}
	res := r.db.WithContext(ctx).
		Model(&models.OrderGroup{}).
		Where("id = ? AND payment_status = ?", groupID, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// CancelUnassignedOrders cancels every order of the group that no courier
// has accepted and returns the cancelled rows.
func (r *repository) CancelUnassignedOrders(ctx context.Context, groupID uuid.UUID, at time.Time) ([]models.Order, error) {
	db := r.db.WithContext(ctx)
	var targets []models.Order
	if err := db.
		Where("group_id = ? AND status = ?", groupID, enums.OrderStatusUnassigned).
		Find(&targets).Error; err != nil {
		return nil, err
	}
	cancelled := make([]models.Order, 0, len(targets))
	for _, order := range targets {
		res := db.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, enums.OrderStatusUnassigned).
			Updates(map[string]any{"status": enums.OrderStatusCancelled, "cancelled_at": at})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			order.Status = enums.OrderStatusCancelled
			order.CancelledAt = &at
			cancelled = append(cancelled, order)
		}
	}
	return cancelled, nil
}

func (r *repository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.OrderGroup, error) {
	var rows []models.OrderGroup
	if err := r.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", enums.PaymentStatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountFallbackOrders(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("fee_fallback = ? AND created_at >= ?", true, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
