package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"livestock-ops/internal/core"
)

func draftSale(t *testing.T, svc core.ReceivableService, trxDate string, gross int64) *core.Sale {
	t.Helper()
	sale, err := svc.CreateSale(context.Background(), adminActor(), core.CreateSaleInput{
		CustomerID:  1,
		TrxDate:     trxDate,
		Category:    core.CategoryProcessedMeat,
		GrossAmount: decimal.NewFromInt(gross),
		Deduction:   decimal.Zero,
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	return sale
}

func TestReceivable_PaymentLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())
	ctx := context.Background()

	sale := draftSale(t, svc, "2026-03-10", 1_000_000)
	if sale.Status != core.SaleStatusDraft {
		t.Fatalf("expected DRAFT, got %s", sale.Status)
	}
	if sale.DocumentNumber != nil {
		t.Fatalf("draft sale must not carry a document number, got %s", *sale.DocumentNumber)
	}

	// Finalize with a 400,000 down payment: 600,000 stays outstanding.
	sale, err := svc.FinalizeSale(ctx, adminActor(), sale.ID, decimal.NewFromInt(400_000), "cash")
	if err != nil {
		t.Fatalf("FinalizeSale failed: %v", err)
	}
	if sale.Status != core.SaleStatusPartial {
		t.Errorf("expected PARTIAL, got %s", sale.Status)
	}
	if !sale.Outstanding.Equal(decimal.NewFromInt(600_000)) {
		t.Errorf("expected outstanding 600000, got %s", sale.Outstanding)
	}
	if sale.DocumentNumber == nil || *sale.DocumentNumber != "INV-202603-001" {
		t.Errorf("expected document number INV-202603-001, got %v", sale.DocumentNumber)
	}

	// Settle the rest.
	sale, err = svc.ApplyPayment(ctx, adminActor(), sale.ID, decimal.NewFromInt(600_000), "transfer", "2026-03-20", "settlement")
	if err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if sale.Status != core.SaleStatusPaid {
		t.Errorf("expected PAID, got %s", sale.Status)
	}
	if !sale.Outstanding.IsZero() {
		t.Errorf("expected zero outstanding, got %s", sale.Outstanding)
	}

	// One rupiah over the balance must be rejected.
	_, err = svc.ApplyPayment(ctx, adminActor(), sale.ID, decimal.NewFromInt(1), "cash", "2026-03-21", "overpay attempt")
	if !core.IsValidation(err) {
		t.Errorf("expected validation error for overpayment, got %v", err)
	}

	// Cached amount_paid must equal the sum of payment records.
	payments, err := svc.ListPayments(ctx, sale.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payment records, got %d", len(payments))
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if !sale.AmountPaid.Equal(sum) {
		t.Errorf("amount_paid %s does not match payment sum %s", sale.AmountPaid, sum)
	}

	// One audit entry per post-finalize payment, with before/after snapshots.
	logs, err := svc.ListAuditLog(ctx, sale.ID)
	if err != nil {
		t.Fatalf("ListAuditLog failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	entry := logs[0]
	if !entry.PaidBefore.Equal(decimal.NewFromInt(400_000)) ||
		!entry.PaidAfter.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("unexpected audit snapshot: before=%s after=%s", entry.PaidBefore, entry.PaidAfter)
	}
	if entry.Actor != "test-admin" {
		t.Errorf("expected actor test-admin, got %s", entry.Actor)
	}
}

func TestReceivable_FinalizeIsSingleShot(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())
	ctx := context.Background()

	sale := draftSale(t, svc, "2026-03-10", 500_000)
	if _, err := svc.FinalizeSale(ctx, adminActor(), sale.ID, decimal.Zero, "cash"); err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}

	_, err := svc.FinalizeSale(ctx, adminActor(), sale.ID, decimal.Zero, "cash")
	if !core.IsInvalidState(err) {
		t.Errorf("expected invalid-state error on second finalize, got %v", err)
	}
}

func TestReceivable_PaymentRequiresFinalizedSale(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())

	sale := draftSale(t, svc, "2026-03-10", 500_000)
	_, err := svc.ApplyPayment(context.Background(), adminActor(), sale.ID,
		decimal.NewFromInt(100_000), "cash", "2026-03-11", "premature payment")
	if !core.IsInvalidState(err) {
		t.Errorf("expected invalid-state error on draft payment, got %v", err)
	}
}

func TestReceivable_DocumentNumbersPerPeriod(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())
	ctx := context.Background()

	finalize := func(trxDate string) string {
		t.Helper()
		sale := draftSale(t, svc, trxDate, 100_000)
		sale, err := svc.FinalizeSale(ctx, adminActor(), sale.ID, decimal.Zero, "cash")
		if err != nil {
			t.Fatalf("FinalizeSale failed: %v", err)
		}
		return *sale.DocumentNumber
	}

	if got := finalize("2026-03-05"); got != "INV-202603-001" {
		t.Errorf("expected INV-202603-001, got %s", got)
	}
	if got := finalize("2026-03-28"); got != "INV-202603-002" {
		t.Errorf("expected INV-202603-002, got %s", got)
	}
	// A new month restarts the counter at 001.
	if got := finalize("2026-04-01"); got != "INV-202604-001" {
		t.Errorf("expected INV-202604-001, got %s", got)
	}
}

func TestReceivable_ConcurrentFinalize(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())
	ctx := context.Background()

	// 1. Create 10 draft sales in the same period
	var saleIDs []int64
	for i := 0; i < 10; i++ {
		sale := draftSale(t, svc, "2026-03-10", 100_000)
		saleIDs = append(saleIDs, sale.ID)
	}

	// 2. Finalize all of them concurrently
	var wg sync.WaitGroup
	errCh := make(chan error, len(saleIDs))

	for _, id := range saleIDs {
		wg.Add(1)
		go func(saleID int64) {
			defer wg.Done()
			if _, err := svc.FinalizeSale(ctx, adminActor(), saleID, decimal.Zero, "cash"); err != nil {
				errCh <- err
			}
		}(id)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent finalize error: %v", err)
	}

	// 3. Verify 10 distinct document numbers forming 001..010 with no gaps
	rows, err := pool.Query(ctx,
		"SELECT document_number FROM sales WHERE finalized = true ORDER BY document_number")
	if err != nil {
		t.Fatalf("failed to query document numbers: %v", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("failed to scan document number: %v", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("document number iteration error: %v", err)
	}

	if len(numbers) != 10 {
		t.Fatalf("expected 10 finalized sales, got %d", len(numbers))
	}
	for i, n := range numbers {
		want := fmt.Sprintf("INV-202603-%03d", i+1)
		if n != want {
			t.Errorf("expected document number %s at position %d, got %s", want, i, n)
		}
	}
}

func TestReceivable_StaffCannotMutate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())

	_, err := svc.CreateSale(context.Background(), staffActor(), core.CreateSaleInput{
		CustomerID:  1,
		TrxDate:     "2026-03-10",
		Category:    core.CategoryLiveBird,
		GrossAmount: decimal.NewFromInt(100_000),
	})
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("expected ErrForbidden for staff, got %v", err)
	}
}

func TestReceivable_RecomputeHealsDrift(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewReceivableService(pool, core.NewDocumentAllocator())
	ctx := context.Background()

	sale := draftSale(t, svc, "2026-03-10", 800_000)
	sale, err := svc.FinalizeSale(ctx, adminActor(), sale.ID, decimal.NewFromInt(300_000), "cash")
	if err != nil {
		t.Fatalf("FinalizeSale failed: %v", err)
	}

	// Simulate drift from manual data surgery on the cached columns.
	_, err = pool.Exec(ctx,
		"UPDATE sales SET amount_paid = 999, outstanding = 1, status = 'PAID' WHERE id = $1", sale.ID)
	if err != nil {
		t.Fatalf("failed to inject drift: %v", err)
	}

	sale, err = svc.RecomputeBalance(ctx, adminActor(), sale.ID)
	if err != nil {
		t.Fatalf("RecomputeBalance failed: %v", err)
	}
	if !sale.AmountPaid.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("expected healed amount_paid 300000, got %s", sale.AmountPaid)
	}
	if !sale.Outstanding.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("expected healed outstanding 500000, got %s", sale.Outstanding)
	}
	if sale.Status != core.SaleStatusPartial {
		t.Errorf("expected PARTIAL after heal, got %s", sale.Status)
	}

	// Replaying the recompute on a consistent sale must change nothing.
	again, err := svc.RecomputeBalance(ctx, adminActor(), sale.ID)
	if err != nil {
		t.Fatalf("second RecomputeBalance failed: %v", err)
	}
	if !again.AmountPaid.Equal(sale.AmountPaid) ||
		!again.Outstanding.Equal(sale.Outstanding) ||
		again.Status != sale.Status {
		t.Errorf("recompute replay changed totals: paid %s->%s outstanding %s->%s status %s->%s",
			sale.AmountPaid, again.AmountPaid, sale.Outstanding, again.Outstanding, sale.Status, again.Status)
	}
}

func TestCustomer_DeleteBlockedByOutstandingBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	receivables := core.NewReceivableService(pool, core.NewDocumentAllocator())
	customers := core.NewCustomerService(pool)
	ctx := context.Background()

	sale := draftSale(t, receivables, "2026-03-10", 250_000)
	if _, err := receivables.FinalizeSale(ctx, adminActor(), sale.ID, decimal.Zero, "credit"); err != nil {
		t.Fatalf("FinalizeSale failed: %v", err)
	}

	err := customers.DeleteCustomer(ctx, adminActor(), 1)
	if !core.IsInvalidState(err) {
		t.Fatalf("expected invalid-state error while balance outstanding, got %v", err)
	}

	// Settle the debt; deletion should then pass.
	if _, err := receivables.ApplyPayment(ctx, adminActor(), sale.ID,
		decimal.NewFromInt(250_000), "cash", "2026-03-15", "settlement"); err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if err := customers.DeleteCustomer(ctx, adminActor(), 1); err != nil {
		t.Fatalf("DeleteCustomer failed after settlement: %v", err)
	}
}
