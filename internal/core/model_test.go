package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"livestock-ops/internal/core"
)

func TestDeriveSaleStatus(t *testing.T) {
	cases := []struct {
		name       string
		grandTotal int64
		amountPaid int64
		want       core.SaleStatus
	}{
		{"fully paid", 1_000_000, 1_000_000, core.SaleStatusPaid},
		{"overpaid still paid", 1_000_000, 1_000_001, core.SaleStatusPaid},
		{"partial", 1_000_000, 400_000, core.SaleStatusPartial},
		{"nothing paid", 1_000_000, 0, core.SaleStatusDebt},
		{"zero total", 0, 0, core.SaleStatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := core.DeriveSaleStatus(decimal.NewFromInt(tc.grandTotal), decimal.NewFromInt(tc.amountPaid))
			if got != tc.want {
				t.Errorf("DeriveSaleStatus(%d, %d) = %s, want %s", tc.grandTotal, tc.amountPaid, got, tc.want)
			}
		})
	}
}

func TestIncomingBatch_UnitWeight(t *testing.T) {
	b := core.IncomingBatch{BirdCount: 100, TotalWeight: decimal.NewFromInt(200)}
	if !b.UnitWeight().Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected unit weight 2, got %s", b.UnitWeight())
	}

	empty := core.IncomingBatch{BirdCount: 0, TotalWeight: decimal.NewFromInt(200)}
	if !empty.UnitWeight().IsZero() {
		t.Errorf("expected zero unit weight for empty batch, got %s", empty.UnitWeight())
	}
}

func TestPeriodKey(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2026-03-10", "INV-202603"},
		{"2026-12-31", "INV-202612"},
		{"2027-01-01", "INV-202701"},
	}

	for _, tc := range cases {
		d, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tc.date, err)
		}
		if got := core.PeriodKey(d); got != tc.want {
			t.Errorf("PeriodKey(%s) = %s, want %s", tc.date, got, tc.want)
		}
	}
}
