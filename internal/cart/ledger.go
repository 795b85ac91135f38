package cart

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mosehq/backend-mose/internal/pricing"
)

// ProductSnapshot captures the product data a line item was added with. The
// ledger never re-fetches product data; the snapshot is trusted for the
// lifetime of the line item so later price changes do not affect it.
type ProductSnapshot struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug,omitempty"`
	Name      string         `json:"name"`
	Image     string         `json:"image,omitempty"`
	Price     pricing.Money  `json:"price"`
	SalePrice *pricing.Money `json:"salePrice,omitempty"`
}

// LineItem is one purchasable configuration in the cart.
type LineItem struct {
	ProductID      string            `json:"productId"`
	Product        ProductSnapshot   `json:"product"`
	Customizations map[string]string `json:"customizations,omitempty"`
	Quantity       int               `json:"quantity"`
	TotalPrice     pricing.Money     `json:"totalPrice"`
}

// Key returns the canonical identity of the line: product ID plus the
// customization set serialized with sorted keys. Two lines are the same line
// iff their keys are equal, regardless of map iteration order.
func (li LineItem) Key() string {
	return lineKey(li.ProductID, li.Customizations)
}

func lineKey(productID string, customizations map[string]string) string {
	if len(customizations) == 0 {
		return productID
	}
	keys := make([]string, 0, len(customizations))
	for k := range customizations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(productID)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(customizations[k]))
	}
	return b.String()
}

// Ledger holds the ordered line items of one session's cart. All mutation
// flows through its methods; a mutex serializes concurrent requests for the
// same session. Invariants maintained after every operation: no two items
// share a key, every quantity is >= 1, and TotalPrice is never stale.
type Ledger struct {
	mu    sync.Mutex
	items []LineItem
}

// NewLedger constructs a ledger from a persisted snapshot. Items with a
// non-positive quantity are discarded during hydration.
func NewLedger(items []LineItem) *Ledger {
	l := &Ledger{}
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		l.items = append(l.items, it)
	}
	return l
}

// AddItem merges the new line into an existing one sharing its key, or
// appends it at the end. On merge the quantities are summed and the incoming
// TotalPrice is added verbatim: totals are merged, not recalculated, so the
// price the buyer saw at add-time sticks. Never fails.
func (l *Ledger) AddItem(item LineItem) {
	if item.Quantity < 1 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := item.Key()
	for i := range l.items {
		if l.items[i].Key() == key {
			l.items[i].Quantity += item.Quantity
			l.items[i].TotalPrice += item.TotalPrice
			return
		}
	}
	l.items = append(l.items, item)
}

// RemoveItem removes the first item matching productID. The match is on
// product ID alone, not the full customization key: when several customized
// variants of one product are in the cart only the first is removed. Removing
// an absent product is a no-op.
func (l *Ledger) RemoveItem(productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(productID)
}

func (l *Ledger) removeLocked(productID string) {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of the first item matching productID and
// recomputes its total from the stored snapshot, preferring the sale price.
// A quantity <= 0 removes the item instead. Unknown products are a no-op.
func (l *Ledger) UpdateQuantity(productID string, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if quantity <= 0 {
		l.removeLocked(productID)
		return
	}
	for i := range l.items {
		if l.items[i].ProductID == productID {
			unit := pricing.Unit(l.items[i].Product.Price, l.items[i].Product.SalePrice)
			l.items[i].Quantity = quantity
			l.items[i].TotalPrice = unit * pricing.Money(quantity)
			return
		}
	}
}

// Clear resets the ledger to an empty sequence.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// Items returns a copy of the current line items in insertion order.
func (l *Ledger) Items() []LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// TotalPrice sums TotalPrice across all items. Zero for an empty cart.
func (l *Ledger) TotalPrice() pricing.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total pricing.Money
	for _, it := range l.items {
		total += it.TotalPrice
	}
	return total
}

// TotalItems sums quantities across all items. Zero for an empty cart.
func (l *Ledger) TotalItems() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var count int
	for _, it := range l.items {
		count += it.Quantity
	}
	return count
}

// ItemCount returns the quantity of the first item matching productID, or 0.
func (l *Ledger) ItemCount(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}
