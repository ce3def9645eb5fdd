package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReceivableService owns the sale lifecycle: draft creation, the one-time
// finalize transition, payment application, and the audit trail. The cached
// amount_paid/outstanding columns on sales are written only by the recompute
// step here — every other component treats them as read-only projections of
// payment_records.
type ReceivableService interface {
	// CreateSale inserts a DRAFT sale with its line items. Line arithmetic is
	// the caller's responsibility; only grand_total = gross - deduction >= 0 is
	// enforced here.
	CreateSale(ctx context.Context, actor Actor, in CreateSaleInput) (*Sale, error)

	// FinalizeSale performs the one-time draft -> finalized transition:
	// allocates the period-scoped document number, records the initial payment,
	// and derives the post-finalize status. Fails with InvalidStateError on a
	// non-draft sale.
	FinalizeSale(ctx context.Context, actor Actor, saleID int64, paymentAmount decimal.Decimal, method string) (*Sale, error)

	// ApplyPayment appends a payment record and recomputes the sale's cached
	// totals from the full payment history. payDate may be empty (today).
	ApplyPayment(ctx context.Context, actor Actor, saleID int64, amount decimal.Decimal, method, payDate, reason string) (*Sale, error)

	// RecomputeBalance re-runs the recompute step without adding a payment.
	// On a consistent sale it changes nothing; on a drifted one it heals the
	// cached totals back to SUM(payment_records).
	RecomputeBalance(ctx context.Context, actor Actor, saleID int64) (*Sale, error)

	// Queries.
	GetSale(ctx context.Context, saleID int64) (*Sale, error)
	ListSales(ctx context.Context, status *SaleStatus) ([]Sale, error)
	ListReceivables(ctx context.Context, customerID *int64) ([]Sale, error)
	ListPayments(ctx context.Context, saleID int64) ([]PaymentRecord, error)
	ListAuditLog(ctx context.Context, saleID int64) ([]BalanceAuditLog, error)
}

// CreateSaleInput is the order-entry payload for a draft sale.
type CreateSaleInput struct {
	CustomerID  int64
	TrxDate     string
	Category    SaleCategory
	GrossAmount decimal.Decimal
	Deduction   decimal.Decimal
	Items       []SaleItemInput
}

// SaleItemInput is one pre-computed invoice line.
type SaleItemInput struct {
	Description string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type receivableService struct {
	pool      *pgxpool.Pool
	allocator DocumentAllocator
}

// NewReceivableService constructs a ReceivableService backed by PostgreSQL.
func NewReceivableService(pool *pgxpool.Pool, allocator DocumentAllocator) ReceivableService {
	return &receivableService{pool: pool, allocator: allocator}
}

// ── Sale creation ─────────────────────────────────────────────────────────────

func (s *receivableService) CreateSale(ctx context.Context, actor Actor, in CreateSaleInput) (*Sale, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if in.Category != CategoryProcessedMeat && in.Category != CategoryLiveBird {
		return nil, validationf("unknown sale category %q", in.Category)
	}
	if _, err := time.Parse("2006-01-02", in.TrxDate); err != nil {
		return nil, validationf("invalid transaction date %q", in.TrxDate)
	}
	grandTotal := in.GrossAmount.Sub(in.Deduction)
	if grandTotal.IsNegative() {
		return nil, validationf("deduction %s exceeds gross amount %s", in.Deduction, in.GrossAmount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", in.CustomerID,
	).Scan(&customerExists); err != nil {
		return nil, fmt.Errorf("failed to check customer: %w", err)
	}
	if !customerExists {
		return nil, notFound("customer", in.CustomerID)
	}

	var saleID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, trx_date, category, gross_amount, deduction,
		                   grand_total, amount_paid, outstanding, status, finalized, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $6, $7, false, '')
		RETURNING id
	`, in.CustomerID, in.TrxDate, string(in.Category), in.GrossAmount, in.Deduction,
		grandTotal, string(SaleStatusDraft)).Scan(&saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sale: %w", err)
	}

	for i, item := range in.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, description, quantity, weight, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, saleID, item.Description, item.Quantity, item.Weight, item.UnitPrice, item.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale creation: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

// ── Finalize ──────────────────────────────────────────────────────────────────

func (s *receivableService) FinalizeSale(ctx context.Context, actor Actor, saleID int64, paymentAmount decimal.Decimal, method string) (*Sale, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if paymentAmount.IsNegative() {
		return nil, validationf("initial payment cannot be negative, got %s", paymentAmount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		customerID int64
		trxDate    string
		finalized  bool
		grandTotal decimal.Decimal
	)
	err = tx.QueryRow(ctx, `
		SELECT customer_id, trx_date::text, finalized, grand_total
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, saleID).Scan(&customerID, &trxDate, &finalized, &grandTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale", saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %d: %w", saleID, err)
	}
	if finalized {
		return nil, invalidStatef("sale %d is already finalized", saleID)
	}
	if paymentAmount.GreaterThan(grandTotal) {
		return nil, validationf("initial payment %s exceeds grand total %s", paymentAmount, grandTotal)
	}

	saleDate, err := time.Parse("2006-01-02", trxDate)
	if err != nil {
		return nil, fmt.Errorf("sale %d has unparseable trx_date %q: %w", saleID, trxDate, err)
	}

	// The allocator runs inside this transaction: a failed finalize rolls the
	// sequence increment back too, keeping numbers gapless per period.
	documentNumber, err := s.allocator.AllocateTx(ctx, tx, saleDate)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate document number: %w", err)
	}

	if paymentAmount.GreaterThan(decimal.Zero) {
		_, err = tx.Exec(ctx, `
			INSERT INTO payment_records (sale_id, customer_id, pay_date, amount, method, note)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, saleID, customerID, trxDate, paymentAmount, method,
			fmt.Sprintf("Initial payment at finalize of %s", documentNumber))
		if err != nil {
			return nil, fmt.Errorf("failed to insert initial payment record: %w", err)
		}
	}

	outstanding := grandTotal.Sub(paymentAmount)
	status := DeriveSaleStatus(grandTotal, paymentAmount)

	_, err = tx.Exec(ctx, `
		UPDATE sales
		SET amount_paid = $1, outstanding = $2, status = $3,
		    finalized = true, payment_method = $4, document_number = $5
		WHERE id = $6
	`, paymentAmount, outstanding, string(status), method, documentNumber, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

// ── Payment application ───────────────────────────────────────────────────────

func (s *receivableService) ApplyPayment(ctx context.Context, actor Actor, saleID int64, amount decimal.Decimal, method, payDate, reason string) (*Sale, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if !amount.GreaterThan(decimal.Zero) {
		return nil, validationf("payment amount must be positive, got %s", amount)
	}
	if method == "" {
		return nil, validationf("payment method is required")
	}
	if reason == "" {
		return nil, validationf("payment reason is required")
	}
	if payDate == "" {
		payDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", payDate); err != nil {
		return nil, validationf("invalid payment date %q", payDate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Snapshot the cached totals under lock — the "before" side of the audit
	// entry. The rejection check uses this snapshot; the new totals do not.
	var (
		customerID        int64
		finalized         bool
		grandTotal        decimal.Decimal
		paidBefore        decimal.Decimal
		outstandingBefore decimal.Decimal
	)
	err = tx.QueryRow(ctx, `
		SELECT customer_id, finalized, grand_total, amount_paid, outstanding
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, saleID).Scan(&customerID, &finalized, &grandTotal, &paidBefore, &outstandingBefore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale", saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %d: %w", saleID, err)
	}
	if !finalized {
		return nil, invalidStatef("sale %d is still a draft; finalize it before applying payments", saleID)
	}
	if amount.GreaterThan(outstandingBefore) {
		return nil, validationf("payment %s exceeds outstanding balance %s", amount, outstandingBefore)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_records (sale_id, customer_id, pay_date, amount, method, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, saleID, customerID, payDate, amount, method, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment record: %w", err)
	}

	// Recompute from source rows, never paidBefore + amount: re-aggregating
	// makes the ledger self-heal from any prior drift in the cached columns.
	paidAfter, outstandingAfter, status, err := recomputeTotalsTx(ctx, tx, saleID, grandTotal)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO balance_audit_logs
			(sale_id, grand_total, paid_before, outstanding_before, paid_after, outstanding_after, reason, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, saleID, grandTotal, paidBefore, outstandingBefore, paidAfter, outstandingAfter, reason, actor.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert balance audit log: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE sales SET amount_paid = $1, outstanding = $2, status = $3 WHERE id = $4
	`, paidAfter, outstandingAfter, string(status), saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to update sale %d totals: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

// recomputeTotalsTx re-derives a sale's cached totals from its payment
// records: amount_paid = SUM(payment_records.amount), outstanding clamped at
// zero, status via DeriveSaleStatus.
func recomputeTotalsTx(ctx context.Context, tx pgx.Tx, saleID int64, grandTotal decimal.Decimal) (paid, outstanding decimal.Decimal, status SaleStatus, err error) {
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_records WHERE sale_id = $1
	`, saleID).Scan(&paid)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", fmt.Errorf("failed to sum payment records for sale %d: %w", saleID, err)
	}

	outstanding = grandTotal.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return paid, outstanding, DeriveSaleStatus(grandTotal, paid), nil
}

// ── Recompute (maintenance) ───────────────────────────────────────────────────

func (s *receivableService) RecomputeBalance(ctx context.Context, actor Actor, saleID int64) (*Sale, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		finalized  bool
		grandTotal decimal.Decimal
	)
	err = tx.QueryRow(ctx,
		"SELECT finalized, grand_total FROM sales WHERE id = $1 FOR UPDATE", saleID,
	).Scan(&finalized, &grandTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale", saleID)
		}
		return nil, fmt.Errorf("failed to lock sale %d: %w", saleID, err)
	}

	paid, outstanding, status, err := recomputeTotalsTx(ctx, tx, saleID, grandTotal)
	if err != nil {
		return nil, err
	}

	// Draft sales keep DRAFT status regardless of the derivation; they have no
	// payment history by construction.
	if !finalized {
		status = SaleStatusDraft
	}

	_, err = tx.Exec(ctx, `
		UPDATE sales SET amount_paid = $1, outstanding = $2, status = $3 WHERE id = $4
	`, paid, outstanding, string(status), saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to write recomputed totals for sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit recompute: %w", err)
	}

	return s.GetSale(ctx, saleID)
}

// ── Queries ───────────────────────────────────────────────────────────────────

const saleColumns = `
	s.id, s.customer_id, c.name, s.trx_date::text, s.category,
	s.gross_amount, s.deduction, s.grand_total, s.amount_paid, s.outstanding,
	s.status, s.finalized, s.payment_method, s.document_number, s.created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var sale Sale
	err := row.Scan(
		&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.TrxDate, &sale.Category,
		&sale.GrossAmount, &sale.Deduction, &sale.GrandTotal, &sale.AmountPaid, &sale.Outstanding,
		&sale.Status, &sale.Finalized, &sale.PaymentMethod, &sale.DocumentNumber, &sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *receivableService) GetSale(ctx context.Context, saleID int64) (*Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale", saleID)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", saleID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, description, quantity, weight, unit_price, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.Description,
			&item.Quantity, &item.Weight, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, nil
}

func (s *receivableService) ListSales(ctx context.Context, status *SaleStatus) ([]Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales s
		JOIN customers c ON c.id = s.customer_id`
	args := []any{}
	if status != nil {
		query += " WHERE s.status = $1"
		args = append(args, string(*status))
	}
	query += " ORDER BY s.id DESC"

	return s.querySales(ctx, query, args...)
}

func (s *receivableService) ListReceivables(ctx context.Context, customerID *int64) ([]Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.finalized = true AND s.outstanding > 0`
	args := []any{}
	if customerID != nil {
		query += " AND s.customer_id = $1"
		args = append(args, *customerID)
	}
	query += " ORDER BY s.trx_date, s.id"

	return s.querySales(ctx, query, args...)
}

func (s *receivableService) querySales(ctx context.Context, query string, args ...any) ([]Sale, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func (s *receivableService) ListPayments(ctx context.Context, saleID int64) ([]PaymentRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, customer_id, pay_date::text, amount, method, note, created_at
		FROM payment_records
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment records: %w", err)
	}
	defer rows.Close()

	var payments []PaymentRecord
	for rows.Next() {
		var p PaymentRecord
		if err := rows.Scan(&p.ID, &p.SaleID, &p.CustomerID, &p.PayDate,
			&p.Amount, &p.Method, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *receivableService) ListAuditLog(ctx context.Context, saleID int64) ([]BalanceAuditLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_id, grand_total, paid_before, outstanding_before,
		       paid_after, outstanding_after, reason, actor, created_at
		FROM balance_audit_logs
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance audit logs: %w", err)
	}
	defer rows.Close()

	var logs []BalanceAuditLog
	for rows.Next() {
		var l BalanceAuditLog
		if err := rows.Scan(&l.ID, &l.SaleID, &l.GrandTotal, &l.PaidBefore, &l.OutstandingBefore,
			&l.PaidAfter, &l.OutstandingAfter, &l.Reason, &l.Actor, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
