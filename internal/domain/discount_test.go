package domain

import "testing"

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name       string
		original   int64
		percentage int
		want       int64
	}{
		{"thirty percent of base price", 35800, 30, 10740},
		{"full discount", 35800, 100, 35800},
		{"one percent rounds half up", 150, 1, 2},
		{"one percent rounds down below half", 149, 1, 1},
		{"small amounts", 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscountAmount(tt.original, tt.percentage); got != tt.want {
				t.Errorf("DiscountAmount(%d, %d) = %d, want %d", tt.original, tt.percentage, got, tt.want)
			}
		})
	}
}

func TestDiscountAmount_FinalNeverNegative(t *testing.T) {
	for pct := 1; pct <= 100; pct++ {
		for _, original := range []int64{1, 99, 1000, 35800, 999999} {
			final := original - DiscountAmount(original, pct)
			if final < 0 {
				t.Fatalf("final amount negative: original=%d pct=%d final=%d", original, pct, final)
			}
		}
	}
}

func TestNextShippingStatus(t *testing.T) {
	tests := []struct {
		from, to ShippingStatus
		want     bool
	}{
		{ShippingPending, ShippingShipped, true},
		{ShippingShipped, ShippingDelivered, true},
		{ShippingPending, ShippingDelivered, false},
		{ShippingShipped, ShippingPending, false},
		{ShippingDelivered, ShippingShipped, false},
		{ShippingDelivered, ShippingDelivered, false},
	}

	for _, tt := range tests {
		if got := NextShippingStatus(tt.from, tt.to); got != tt.want {
			t.Errorf("NextShippingStatus(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
