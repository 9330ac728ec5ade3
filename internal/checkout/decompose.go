package checkout

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bazaarlink-backend/internal/cart"
	"github.com/angelmondragon/bazaarlink-backend/internal/checkout/helpers"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// VendorOrderDraft is the priced, not yet persisted order for one vendor.
type VendorOrderDraft struct {
	VendorID         uuid.UUID
	AddressID        uuid.UUID
	Lines            []models.CartLine
	SubtotalPaise    int64
	DeliveryFeePaise int64
	DistanceKm       float64
	TaxPaise         int64
	ItemCount        int
	OrderNumber      string
	FeeFallback      bool
}

// TotalPaise is what the customer owes for this vendor order. Discounts
// live on the group only.
func (d VendorOrderDraft) TotalPaise() int64 {
	return d.SubtotalPaise + d.DeliveryFeePaise + d.TaxPaise
}

// GroupTotals aggregates the drafts of one checkout.
type GroupTotals struct {
	SubtotalPaise    int64
	DeliveryFeePaise int64
	TaxPaise         int64
	DiscountPaise    int64
}

// TotalPaise is the amount payable for the whole group.
func (t GroupTotals) TotalPaise() int64 {
	return t.SubtotalPaise + t.DeliveryFeePaise + t.TaxPaise - t.DiscountPaise
}

// DiscountFunc prices the group-level discount from the aggregate subtotal
// and delivery fee.
type DiscountFunc func(subtotalPaise, deliveryFeePaise int64) (int64, error)

// DecomposeInput is the session state a checkout starts from.
type DecomposeInput struct {
	AddressID uuid.UUID
	Lines     []models.CartLine
	Fees      pricing.FeeLookup
	TaxRate   decimal.Decimal
	Discount  DiscountFunc
}

// Decomposition is the decomposer output handed to order group creation.
type Decomposition struct {
	Orders []VendorOrderDraft
	Totals GroupTotals
}

// FallbackCount reports how many drafts were priced with the fallback fee.
func (d Decomposition) FallbackCount() int {
	count := 0
	for _, order := range d.Orders {
		if order.FeeFallback {
			count++
		}
	}
	return count
}

// Decomposer splits a cart into one draft per vendor.
type Decomposer struct {
	fallback       pricing.FeeQuote
	newOrderNumber func() (string, error)
}

// NewDecomposer builds a decomposer using fallback for vendors missing from
// the fee lookup.
func NewDecomposer(fallback pricing.FeeQuote) *Decomposer {
	return &Decomposer{fallback: fallback, newOrderNumber: NewOrderNumber}
}

// NewOrderNumber issues a time-ordered, collision resistant order number.
func NewOrderNumber() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")), nil
}

// Decompose prices each vendor partition and sums the group totals.
func (d *Decomposer) Decompose(in DecomposeInput) (*Decomposition, error) {
	groups := helpers.GroupCartLinesByVendor(in.Lines)
	if len(groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no orderable items")
	}

	out := &Decomposition{Orders: make([]VendorOrderDraft, 0, len(groups))}
	for _, group := range groups {
		for _, line := range group.Lines {
			if line.Quantity <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
			}
		}
		number, err := d.newOrderNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}

		priced := cart.PricingLines(group.Lines)
		subtotal := pricing.Subtotal(priced)
		quote, ok := in.Fees[group.VendorID]
		if !ok {
			quote = d.fallback
		}

		draft := VendorOrderDraft{
			VendorID:         group.VendorID,
			AddressID:        in.AddressID,
			Lines:            group.Lines,
			SubtotalPaise:    subtotal,
			DeliveryFeePaise: quote.FeePaise,
			DistanceKm:       quote.DistanceKm,
			TaxPaise:         pricing.Tax(subtotal, in.TaxRate),
			ItemCount:        pricing.ItemCount(priced),
			OrderNumber:      number,
			FeeFallback:      !ok,
		}
		out.Orders = append(out.Orders, draft)
		out.Totals.SubtotalPaise += draft.SubtotalPaise
		out.Totals.DeliveryFeePaise += draft.DeliveryFeePaise
		out.Totals.TaxPaise += draft.TaxPaise
	}

	if in.Discount != nil {
		discount, err := in.Discount(out.Totals.SubtotalPaise, out.Totals.DeliveryFeePaise)
		if err != nil {
			return nil, err
		}
		ceiling := out.Totals.SubtotalPaise + out.Totals.DeliveryFeePaise
		if discount > ceiling {
			discount = ceiling
		}
		if discount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount %d", discount))
		}
		out.Totals.DiscountPaise = discount
	}
	return out, nil
}
