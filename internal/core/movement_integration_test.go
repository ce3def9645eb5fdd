package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"livestock-ops/internal/core"
)

func TestMovement_IncomingBatchDerivedFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)

	batch, err := movements.RecordIncomingBatch(context.Background(), adminActor(), core.IncomingBatchInput{
		SiteID:         1,
		ArrivalDate:    "2026-05-01",
		CageLabel:      "A-3",
		BirdCount:      500,
		TotalWeight:    decimal.NewFromInt(1000),
		PricePerKg:     decimal.NewFromInt(20_000),
		TransferAmount: decimal.NewFromInt(8_000_000),
	})
	if err != nil {
		t.Fatalf("RecordIncomingBatch failed: %v", err)
	}

	if !batch.TotalPrice.Equal(decimal.NewFromInt(20_000_000)) {
		t.Errorf("expected total price 20000000, got %s", batch.TotalPrice)
	}
	if !batch.SupplierBalance.Equal(decimal.NewFromInt(12_000_000)) {
		t.Errorf("expected supplier balance 12000000, got %s", batch.SupplierBalance)
	}
}

func TestMovement_Validation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	ctx := context.Background()

	// Transfer beyond the purchase price.
	_, err := movements.RecordIncomingBatch(ctx, adminActor(), core.IncomingBatchInput{
		SiteID:         1,
		ArrivalDate:    "2026-05-01",
		BirdCount:      10,
		TotalWeight:    decimal.NewFromInt(20),
		PricePerKg:     decimal.NewFromInt(20_000),
		TransferAmount: decimal.NewFromInt(500_000),
	})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error for excess transfer, got %v", err)
	}

	// Deduction beyond the sale amount.
	_, err = movements.RecordLiveShipment(ctx, adminActor(), core.LiveShipmentInput{
		SiteID:     1,
		ShipDate:   "2026-05-01",
		BirdCount:  10,
		SaleAmount: decimal.NewFromInt(100_000),
		Deduction:  decimal.NewFromInt(150_000),
	})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error for excess deduction, got %v", err)
	}

	// Unknown claim status.
	_, err = movements.RecordMortality(ctx, adminActor(), core.MortalityInput{
		SiteID:      1,
		RecordDate:  "2026-05-01",
		BirdCount:   5,
		ClaimStatus: "MAYBE",
	})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error for unknown claim status, got %v", err)
	}

	// Unknown site.
	_, err = movements.RecordMortality(ctx, adminActor(), core.MortalityInput{
		SiteID:      99,
		RecordDate:  "2026-05-01",
		BirdCount:   5,
		ClaimStatus: core.ClaimClaimable,
	})
	if !core.IsNotFound(err) {
		t.Errorf("expected not-found error for unknown site, got %v", err)
	}
}

func TestMovement_ListFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	movements := core.NewMovementService(pool)
	ctx := context.Background()

	seedBatch(t, movements, 1, "2026-05-01", 100, 200, 20_000)
	seedBatch(t, movements, 2, "2026-05-02", 200, 400, 20_000)
	seedBatch(t, movements, 1, "2026-05-10", 300, 600, 20_000)

	// Site filter.
	batches, err := movements.ListIncomingBatches(ctx, ptrInt64(1), "", "")
	if err != nil {
		t.Fatalf("ListIncomingBatches failed: %v", err)
	}
	if len(batches) != 2 {
		t.Errorf("expected 2 batches at site 1, got %d", len(batches))
	}

	// Date-range filter.
	batches, err = movements.ListIncomingBatches(ctx, nil, "2026-05-02", "2026-05-09")
	if err != nil {
		t.Fatalf("ListIncomingBatches failed: %v", err)
	}
	if len(batches) != 1 || batches[0].SiteID != 2 {
		t.Errorf("expected exactly the site-2 batch in range, got %d rows", len(batches))
	}
}
