package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDiscountedPrice(t *testing.T) {
	cases := []struct {
		name     string
		original string
		percent  uint
		want     string
	}{
		{"ten percent off", "1000", 10, "900"},
		{"zero percent", "1000", 0, "1000"},
		{"full discount", "1000", 100, "0"},
		{"rounds to currency precision", "99.99", 33, "66.99"},
		{"small price", "0.10", 50, "0.05"},
		{"zero price", "0", 25, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			original, err := decimal.NewFromString(tc.original)
			if err != nil {
				t.Fatalf("bad original price %q: %v", tc.original, err)
			}
			want, err := decimal.NewFromString(tc.want)
			if err != nil {
				t.Fatalf("bad expected price %q: %v", tc.want, err)
			}

			got := DiscountedPrice(original, tc.percent)
			if !got.Equal(want) {
				t.Errorf("DiscountedPrice(%s, %d) = %s, want %s", tc.original, tc.percent, got, want)
			}
		})
	}
}

func TestDiscountedPriceNeverExceedsOriginal(t *testing.T) {
	original := decimal.NewFromInt(12345)
	for percent := uint(0); percent <= 100; percent += 5 {
		got := DiscountedPrice(original, percent)
		if got.GreaterThan(original) {
			t.Errorf("DiscountedPrice(%s, %d) = %s exceeds original", original, percent, got)
		}
		if got.IsNegative() {
			t.Errorf("DiscountedPrice(%s, %d) = %s is negative", original, percent, got)
		}
	}
}
