package cart

import (
	cartdto "github.com/angelmondragon/bazaarlink-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/bazaarlink-backend/internal/cart"
	"github.com/angelmondragon/bazaarlink-backend/internal/pricing"
)

func newCart(view *cartsvc.CartView) cartdto.Cart {
	if view == nil {
		return cartdto.Cart{Lines: []cartdto.CartLine{}}
	}
	lines := make([]cartdto.CartLine, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, cartdto.CartLine{
			ID:                 line.ID,
			ProductID:          line.ProductID,
			VendorID:           line.VendorID,
			UnitPricePaise:     line.UnitPricePaise,
			DiscountPricePaise: line.DiscountPricePaise,
			Quantity:           line.Quantity,
			LineTotalPaise: pricing.LineTotal(pricing.Line{
				UnitPricePaise:     line.UnitPricePaise,
				DiscountPricePaise: line.DiscountPricePaise,
				Quantity:           line.Quantity,
			}),
			UpdatedAt: line.UpdatedAt,
		})
	}

	return cartdto.Cart{
		CustomerID:    view.CustomerID,
		Lines:         lines,
		ItemCount:     view.ItemCount,
		SubtotalPaise: view.SubtotalPaise,
		VendorCount:   view.VendorCount,
	}
}
