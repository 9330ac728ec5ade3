package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/internal/repo"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

var errLockOutsideTx = errors.New("order lock requires a transaction")

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Pickups", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder takes a row lock on the order for the rest of the transaction so
// item and leg updates on the same order serialize.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) error {
	if !r.InTx() {
		return errLockOutsideTx
	}
	var order models.Order
	return r.ForUpdate(ctx).
		Select("id").
		Where("id = ?", orderID).
		First(&order).Error
}

func (r *repository) FindGroup(ctx context.Context, groupID uuid.UUID) (*models.OrderGroup, error) {
	var group models.OrderGroup
	if err := r.DB(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListAvailable returns unassigned orders whose group payment lets a courier dispatch them.
func (r *repository) ListAvailable(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.DB(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_groups ON order_groups.id = orders.group_id").
		Where("orders.status = ?", enums.OrderStatusUnassigned).
		Where("order_groups.payment_status IN ?", []enums.PaymentStatus{enums.PaymentStatusCOD, enums.PaymentStatusPaid})
	return r.page(query, cursor, limit)
}

func (r *repository) ListForCourier(ctx context.Context, courierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Where("orders.courier_id = ?", courierID)
	return r.page(query, cursor, limit)
}

func (r *repository) page(query *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	if cursor != nil {
		query = query.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Order
	if err := query.
		Select("orders.*").
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Assign claims an unassigned order. Only one courier can observe RowsAffected == 1.
func (r *repository) Assign(ctx context.Context, orderID, courierID uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND courier_id IS NULL", orderID, enums.OrderStatusUnassigned).
		Updates(map[string]any{
			"status":      enums.OrderStatusAssigned,
			"courier_id":  courierID,
			"assigned_at": at,
		})
	return repo.SingleRow(res)
}

func (r *repository) CreatePickups(ctx context.Context, pickups []models.VendorPickup) error {
	if len(pickups) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&pickups).Error
}

func (r *repository) SetItemCollected(ctx context.Context, orderID, itemID uuid.UUID, collected bool, at *time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Updates(map[string]any{
			"collected":    collected,
			"collected_at": at,
		})
	return repo.SingleRow(res)
}

// MarkPickupCollected closes a vendor leg only while every item of that
// vendor on the order is still collected.
func (r *repository) MarkPickupCollected(ctx context.Context, orderID, vendorID uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.VendorPickup{}).
		Where("order_id = ? AND vendor_id = ? AND collected = ?", orderID, vendorID, false).
		Where("NOT EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = vendor_pickups.order_id AND order_items.vendor_id = vendor_pickups.vendor_id AND order_items.collected = ?)", false).
		Updates(map[string]any{
			"collected":    true,
			"collected_at": at,
		})
	return repo.SingleRow(res)
}

// Transition moves an order between statuses with a compare-and-set on the
// current status, stamping the timestamp column that belongs to the target.
func (r *repository) Transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error) {
	column, err := timestampColumn(to)
	if err != nil {
		return false, err
	}
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status": to,
			column:   at,
		})
	return repo.SingleRow(res)
}

func timestampColumn(status enums.OrderStatus) (string, error) {
	switch status {
	case enums.OrderStatusAssigned:
		return "assigned_at", nil
	case enums.OrderStatusPickedUp:
		return "picked_up_at", nil
	case enums.OrderStatusOutForDelivery:
		return "out_for_delivery_at", nil
	case enums.OrderStatusDelivered:
		return "delivered_at", nil
	case enums.OrderStatusCancelled:
		return "cancelled_at", nil
	default:
		return "", fmt.Errorf("no timestamp column for status %q", status)
	}
}
