package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	dbpkg "github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const cartLineUniqueIndex = "ux_cart_lines_customer_product"

// MaxLineQuantity caps how many units of one product a cart line can hold.
const MaxLineQuantity = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart persistence operations.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartView, error)
	Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	AddLine(ctx context.Context, customerID uuid.UUID, input AddLineInput) (*CartView, error)
	UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartView, error)
	RemoveLine(ctx context.Context, customerID, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
	ClearTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error
	ConsumeTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, expectedLines int) error
}

// AddLineInput identifies the product and quantity to add.
type AddLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CartView is the customer's cart with derived totals.
type CartView struct {
	CustomerID    uuid.UUID
	Lines         []models.CartLine
	ItemCount     int
	SubtotalPaise int64
	VendorCount   int
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	lines, err := s.repo.ListLines(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(customerID, lines), nil
}

func (s *service) Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	view, err := s.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return view.Lines, nil
}

// AddLine prices the product from the catalogue and merges it into any
// existing line for the same product.
func (s *service) AddLine(ctx context.Context, customerID uuid.UUID, input AddLineInput) (*CartView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}

		existing, err := repo.FindLine(ctx, customerID, input.ProductID)
		switch {
		case err == nil:
			existing.Quantity += input.Quantity
			if existing.Quantity > MaxLineQuantity {
				return quantityTooLarge()
			}
			applyProduct(existing, product)
			if err := repo.UpdateLine(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update cart line")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if input.Quantity > MaxLineQuantity {
				return quantityTooLarge()
			}
			line := &models.CartLine{CustomerID: customerID, ProductID: product.ID, Quantity: input.Quantity}
			applyProduct(line, product)
			if err := repo.CreateLine(ctx, line); err != nil {
				if dbpkg.IsUniqueViolation(err, cartLineUniqueIndex) {
					return pkgerrors.New(pkgerrors.CodeConflict, "product was added to the cart concurrently, retry")
				}
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create cart line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		view, err = s.reload(ctx, repo, customerID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "add cart line")
	}
	return view, nil
}

// UpdateQuantity sets the quantity of an existing line. Zero removes it.
func (s *service) UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if quantity > MaxLineQuantity {
		return nil, quantityTooLarge()
	}
	if quantity == 0 {
		return s.RemoveLine(ctx, customerID, productID)
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := repo.FindLine(ctx, customerID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		line.Quantity = quantity
		if err := repo.UpdateLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update cart line")
		}
		view, err = s.reload(ctx, repo, customerID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistence, err, "update cart line")
	}
	return view, nil
}

func (s *service) RemoveLine(ctx context.Context, customerID, productID uuid.UUID) (*CartView, error) {
	if customerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and product id are required")
	}
	removed, err := s.repo.DeleteLine(ctx, customerID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "remove cart line")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return s.GetCart(ctx, customerID)
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if _, err := s.repo.DeleteAll(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
	}
	return nil
}

// ClearTx empties the cart inside the caller's transaction so it commits
// together with the order group.
func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error {
	if _, err := s.repo.WithTx(tx).DeleteAll(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
	}
	return nil
}

// ConsumeTx empties the cart inside the caller's transaction and fails when
// the cart no longer holds the lines the caller priced. A concurrent checkout
// that already consumed the cart deletes nothing here.
func (s *service) ConsumeTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, expectedLines int) error {
	deleted, err := s.repo.WithTx(tx).DeleteAll(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear cart")
	}
	if deleted != int64(expectedLines) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout").
			WithDetails(map[string]any{"expected_lines": expectedLines, "found_lines": deleted})
	}
	return nil
}

func (s *service) reload(ctx context.Context, repo CartRepository, customerID uuid.UUID) (*CartView, error) {
	lines, err := repo.ListLines(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(customerID, lines), nil
}

func applyProduct(line *models.CartLine, product *models.Product) {
	line.VendorID = product.VendorID
	line.UnitPricePaise = product.UnitPricePaise
	line.DiscountPricePaise = product.DiscountPricePaise
}

func quantityTooLarge() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity))
}

func buildView(customerID uuid.UUID, lines []models.CartLine) *CartView {
	priced := PricingLines(lines)
	vendors := map[uuid.UUID]struct{}{}
	for _, line := range lines {
		vendors[line.VendorID] = struct{}{}
	}
	return &CartView{
		CustomerID:    customerID,
		Lines:         lines,
		ItemCount:     pricing.ItemCount(priced),
		SubtotalPaise: pricing.Subtotal(priced),
		VendorCount:   len(vendors),
	}
}

// PricingLines projects cart lines onto the pricing package's line shape.
func PricingLines(lines []models.CartLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, pricing.Line{
			UnitPricePaise:     line.UnitPricePaise,
			DiscountPricePaise: line.DiscountPricePaise,
			Quantity:           line.Quantity,
		})
	}
	return out
}
