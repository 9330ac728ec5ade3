package cart

import (
	"context"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListLines returns the customer's cart in insertion order.
func (r *Repository) ListLines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindLine loads the line for a product in the customer's cart.
func (r *Repository) FindLine(ctx context.Context, customerID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine inserts a new cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateLine persists quantity and price snapshot changes.
func (r *Repository) UpdateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":             line.Quantity,
			"unit_price_paise":     line.UnitPricePaise,
			"discount_price_paise": line.DiscountPricePaise,
			"vendor_id":            line.VendorID,
		}).Error
}

// DeleteLine removes one product from the cart and reports how many rows went.
func (r *Repository) DeleteLine(ctx context.Context, customerID, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteAll empties the customer's cart and reports how many lines went.
func (r *Repository) DeleteAll(ctx context.Context, customerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// FindProduct loads the catalogue row used to price a line.
func (r *Repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
