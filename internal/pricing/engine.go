package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Unit selects the effective per-item price: the sale price when one is set,
// otherwise the base price.
func Unit(price Money, salePrice *Money) Money {
	if salePrice != nil {
		return *salePrice
	}
	return price
}

// Item describes a line item used for order total calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Tax      Money
	Total    Money
}

// Compute calculates order totals from the provided line items.
func Compute(items []Item, taxBps int) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	tax := (subtotal * Money(taxBps)) / 10000
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
