package core_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"livestock-ops/internal/core"
)

func seedBatch(t *testing.T, svc core.MovementService, siteID int64, date string, birds int64, weight, pricePerKg int64) {
	t.Helper()
	_, err := svc.RecordIncomingBatch(context.Background(), adminActor(), core.IncomingBatchInput{
		SiteID:      siteID,
		ArrivalDate: date,
		BirdCount:   birds,
		TotalWeight: decimal.NewFromInt(weight),
		PricePerKg:  decimal.NewFromInt(pricePerKg),
	})
	if err != nil {
		t.Fatalf("RecordIncomingBatch failed: %v", err)
	}
}

func seedMortality(t *testing.T, svc core.MovementService, siteID int64, date string, birds int64, status core.ClaimStatus) {
	t.Helper()
	_, err := svc.RecordMortality(context.Background(), adminActor(), core.MortalityInput{
		SiteID:      siteID,
		RecordDate:  date,
		BirdCount:   birds,
		ClaimStatus: status,
	})
	if err != nil {
		t.Fatalf("RecordMortality failed: %v", err)
	}
}

func seedLiveShipment(t *testing.T, svc core.MovementService, siteID int64, date string, birds int64) {
	t.Helper()
	_, err := svc.RecordLiveShipment(context.Background(), adminActor(), core.LiveShipmentInput{
		SiteID:     siteID,
		ShipDate:   date,
		BirdCount:  birds,
		SaleAmount: decimal.NewFromInt(birds * 50_000),
	})
	if err != nil {
		t.Fatalf("RecordLiveShipment failed: %v", err)
	}
}

func TestStock_DailyReport(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	stock := core.NewStockService(pool)
	ctx := context.Background()

	// Site 1: 1000 in on the 1st, 20 dead and 300 shipped on the 2nd.
	seedBatch(t, movements, 1, "2026-05-01", 1000, 2000, 20_000)
	seedMortality(t, movements, 1, "2026-05-02", 20, core.ClaimNotClaimable)
	seedLiveShipment(t, movements, 1, "2026-05-02", 300)

	report, err := stock.DailyReport(ctx, nil, "2026-05-02")
	if err != nil {
		t.Fatalf("DailyReport failed: %v", err)
	}
	if len(report.Sites) != 2 {
		t.Fatalf("expected 2 site rows, got %d", len(report.Sites))
	}

	site1 := report.Sites[0]
	if site1.CarryIn != 1000 {
		t.Errorf("expected carry-in 1000, got %d", site1.CarryIn)
	}
	if site1.MortalityToday != 20 || site1.OutgoingToday != 300 {
		t.Errorf("unexpected movement: mort=%d out=%d", site1.MortalityToday, site1.OutgoingToday)
	}
	if site1.StockTotal != 680 {
		t.Errorf("expected stock 680, got %d", site1.StockTotal)
	}

	// Site 2 has no movement at all: zeros, not an error.
	site2 := report.Sites[1]
	if site2.CarryIn != 0 || site2.StockTotal != 0 {
		t.Errorf("expected empty site to report zeros, got carry=%d stock=%d", site2.CarryIn, site2.StockTotal)
	}

	if report.Total.StockTotal != 680 {
		t.Errorf("expected grand total 680, got %d", report.Total.StockTotal)
	}

	// The cumulative view must agree with the daily closing stock.
	through, err := stock.StockThrough(ctx, 1, "2026-05-02")
	if err != nil {
		t.Fatalf("StockThrough failed: %v", err)
	}
	if through != site1.StockTotal {
		t.Errorf("StockThrough %d disagrees with daily closing stock %d", through, site1.StockTotal)
	}
}

func TestStock_NegativeStockIsReported(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	stock := core.NewStockService(pool)

	// Shipment with no recorded delivery: the anomaly must be visible as a
	// negative figure, not clamped to zero.
	seedBatch(t, movements, 1, "2026-05-01", 100, 200, 20_000)
	seedLiveShipment(t, movements, 1, "2026-05-02", 150)

	report, err := stock.DailyReport(context.Background(), ptrInt64(1), "2026-05-02")
	if err != nil {
		t.Fatalf("DailyReport failed: %v", err)
	}
	if report.Sites[0].StockTotal != -50 {
		t.Errorf("expected -50 stock, got %d", report.Sites[0].StockTotal)
	}
}

func TestStock_MonthlyReport(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	stock := core.NewStockService(pool)
	ctx := context.Background()

	seedBatch(t, movements, 1, "2026-05-01", 500, 1000, 20_000)
	seedBatch(t, movements, 1, "2026-05-20", 300, 600, 21_000)
	seedMortality(t, movements, 1, "2026-05-15", 30, core.ClaimClaimable)
	seedLiveShipment(t, movements, 1, "2026-05-25", 400)
	// Outside the month: must not count.
	seedBatch(t, movements, 1, "2026-06-01", 999, 2000, 20_000)

	report, err := stock.MonthlyReport(ctx, ptrInt64(1), 2026, 5)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	row := report.Sites[0]
	if row.IncomingTotal != 800 || row.MortalityTotal != 30 || row.OutgoingTotal != 400 {
		t.Errorf("unexpected totals: in=%d mort=%d out=%d", row.IncomingTotal, row.MortalityTotal, row.OutgoingTotal)
	}
	if row.Difference != 370 {
		t.Errorf("expected difference 370, got %d", row.Difference)
	}
}

func TestStock_DailyAndMonthlyAgree(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	stock := core.NewStockService(pool)
	ctx := context.Background()

	// Carry-in from the previous month, then movement spread across May.
	seedBatch(t, movements, 1, "2026-04-28", 200, 400, 20_000)
	seedBatch(t, movements, 1, "2026-05-03", 500, 1000, 20_000)
	seedMortality(t, movements, 1, "2026-05-03", 15, core.ClaimNotClaimable)
	seedLiveShipment(t, movements, 1, "2026-05-12", 250)
	seedBatch(t, movements, 1, "2026-05-20", 100, 200, 21_000)
	seedMortality(t, movements, 1, "2026-05-27", 5, core.ClaimClaimable)

	// Walk the month day by day: the sum of daily deltas must equal the
	// monthly difference, and each day's carry-in must equal the previous
	// day's closing stock.
	var (
		deltaSum  int64
		prevStock int64
		havePrev  bool
	)
	for day := 1; day <= 31; day++ {
		date := fmt.Sprintf("2026-05-%02d", day)
		report, err := stock.DailyReport(ctx, ptrInt64(1), date)
		if err != nil {
			t.Fatalf("DailyReport(%s) failed: %v", date, err)
		}
		row := report.Sites[0]

		deltaSum += row.IncomingToday - row.MortalityToday - row.OutgoingToday
		if havePrev && row.CarryIn != prevStock {
			t.Errorf("%s carry-in %d does not chain from previous closing stock %d",
				date, row.CarryIn, prevStock)
		}
		prevStock = row.StockTotal
		havePrev = true
	}

	monthly, err := stock.MonthlyReport(ctx, ptrInt64(1), 2026, 5)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if monthly.Sites[0].Difference != deltaSum {
		t.Errorf("monthly difference %d does not equal sum of daily deltas %d",
			monthly.Sites[0].Difference, deltaSum)
	}

	// The month's closing stock must also equal carry-in plus the difference.
	through, err := stock.StockThrough(ctx, 1, "2026-05-31")
	if err != nil {
		t.Fatalf("StockThrough failed: %v", err)
	}
	carryIn, err := stock.StockThrough(ctx, 1, "2026-04-30")
	if err != nil {
		t.Fatalf("StockThrough failed: %v", err)
	}
	if through != carryIn+monthly.Sites[0].Difference {
		t.Errorf("closing stock %d != carry-in %d + monthly difference %d",
			through, carryIn, monthly.Sites[0].Difference)
	}
}

func TestStock_MonthlyReportFutureMonth(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	stock := core.NewStockService(pool)

	report, err := stock.MonthlyReport(context.Background(), nil, 2099, 1)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if len(report.Sites) != 0 || report.Total.IncomingTotal != 0 {
		t.Errorf("expected all-zero report for future month, got %+v", report)
	}

	if _, err := stock.MonthlyReport(context.Background(), nil, 2026, 13); !core.IsValidation(err) {
		t.Errorf("expected validation error for month 13, got %v", err)
	}
}

func ptrInt64(v int64) *int64 { return &v }
