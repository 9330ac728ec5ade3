package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

// Repository defines persistence operations for courier fulfillment.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	LockOrder(ctx context.Context, orderID uuid.UUID) error
	FindGroup(ctx context.Context, groupID uuid.UUID) (*models.OrderGroup, error)
	ListAvailable(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListForCourier(ctx context.Context, courierID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Assign(ctx context.Context, orderID, courierID uuid.UUID, at time.Time) (bool, error)
	CreatePickups(ctx context.Context, pickups []models.VendorPickup) error
	SetItemCollected(ctx context.Context, orderID, itemID uuid.UUID, collected bool, at *time.Time) (bool, error)
	MarkPickupCollected(ctx context.Context, orderID, vendorID uuid.UUID, at time.Time) (bool, error)
	Transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, at time.Time) (bool, error)
}
