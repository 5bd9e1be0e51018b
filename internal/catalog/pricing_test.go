package catalog

import (
	"testing"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
)

func intPtr(v int) *int { return &v }

func TestDiscountedPrice(t *testing.T) {
	cases := []struct {
		name    string
		mrp     int64
		percent *int
		want    int64
	}{
		{name: "nil percent means full mrp", mrp: 300, percent: nil, want: 300},
		{name: "zero percent", mrp: 300, percent: intPtr(0), want: 300},
		{name: "ten percent off 300", mrp: 300, percent: intPtr(10), want: 270},
		{name: "discount amount floors", mrp: 199, percent: intPtr(15), want: 170},
		{name: "full discount", mrp: 500, percent: intPtr(100), want: 0},
		{name: "over one hundred clamps to zero", mrp: 500, percent: intPtr(150), want: 0},
		{name: "negative percent ignored", mrp: 250, percent: intPtr(-5), want: 250},
		{name: "zero mrp", mrp: 0, percent: intPtr(20), want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DiscountedPrice(tc.mrp, tc.percent); got != tc.want {
				t.Fatalf("DiscountedPrice(%d, %v) = %d, want %d", tc.mrp, tc.percent, got, tc.want)
			}
		})
	}
}

func TestVariantPrice(t *testing.T) {
	product := &models.Product{DiscountPercent: intPtr(10)}
	variant := &models.Variant{MRP: 300}
	if got := VariantPrice(product, variant); got != 270 {
		t.Fatalf("VariantPrice = %d, want 270", got)
	}
	if got := VariantPrice(nil, variant); got != 0 {
		t.Fatalf("nil product should price at 0, got %d", got)
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(270, 2); got != 540 {
		t.Fatalf("LineTotal(270, 2) = %d, want 540", got)
	}
	if got := LineTotal(270, 0); got != 0 {
		t.Fatalf("zero quantity should total 0, got %d", got)
	}
	if got := LineTotal(270, -1); got != 0 {
		t.Fatalf("negative quantity should total 0, got %d", got)
	}
}
