package pricing

import "testing"

func TestUnitPrefersSalePrice(t *testing.T) {
	sale := Money(7500)
	if got := Unit(10_000, &sale); got != 7500 {
		t.Fatalf("expected sale price 7500, got %d", got)
	}
	if got := Unit(10_000, nil); got != 10_000 {
		t.Fatalf("expected base price 10000, got %d", got)
	}
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 1000},
		{Qty: 0, UnitPrice: 9999},
		{Qty: 1, UnitPrice: 500},
	}
	summary := Compute(items, 0)
	if summary.Subtotal != 2500 {
		t.Fatalf("expected subtotal 2500, got %d", summary.Subtotal)
	}
	if summary.Total != 2500 {
		t.Fatalf("expected total 2500, got %d", summary.Total)
	}
}

func TestComputeTax(t *testing.T) {
	summary := Compute([]Item{{Qty: 1, UnitPrice: 100_000}}, 1100)
	if summary.Tax != 11_000 {
		t.Fatalf("expected tax 11000, got %d", summary.Tax)
	}
	if summary.Total != 111_000 {
		t.Fatalf("expected total 111000, got %d", summary.Total)
	}
}
