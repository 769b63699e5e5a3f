// Package pricing computes order totals from cart lines.
package pricing

import (
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/money"
)

const (
	FreeShippingOver = money.Money(200_00)
	FlatShipping     = money.Money(15_00)
	TaxPercent       = 15
)

type Breakdown struct {
	ItemsPrice    money.Money `json:"itemsPrice"`
	ShippingPrice money.Money `json:"shippingPrice"`
	TaxPrice      money.Money `json:"taxPrice"`
	TotalPrice    money.Money `json:"totalPrice"`
}

// Price is pure. Shipping is free only when the items subtotal is strictly
// above the threshold, so an empty cart still carries the flat fee.
func Price(lines []models.CartLine) Breakdown {
	var items money.Money
	for _, l := range lines {
		items += l.Price.Mul(l.Quantity)
	}

	shipping := FlatShipping
	if items > FreeShippingOver {
		shipping = 0
	}
	tax := items.Percent(TaxPercent)

	return Breakdown{
		ItemsPrice:    items,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    items + shipping + tax,
	}
}

func Of(o *models.Order) Breakdown {
	return Breakdown{
		ItemsPrice:    o.ItemsPrice,
		ShippingPrice: o.ShippingPrice,
		TaxPrice:      o.TaxPrice,
		TotalPrice:    o.TotalPrice,
	}
}
