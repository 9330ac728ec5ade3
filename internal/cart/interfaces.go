package cart

import (
	"context"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListLines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	FindLine(ctx context.Context, customerID, productID uuid.UUID) (*models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	UpdateLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, customerID, productID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}
