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

// MovementService owns the three movement streams feeding stock
// reconciliation — incoming batches, mortality, outgoing shipments — plus the
// sales-side processed shipments. All streams are append-mostly: rows are
// created once and read forever; no running stock balance is stored anywhere.
type MovementService interface {
	RecordIncomingBatch(ctx context.Context, actor Actor, in IncomingBatchInput) (*IncomingBatch, error)
	RecordMortality(ctx context.Context, actor Actor, in MortalityInput) (*MortalityRecord, error)
	RecordLiveShipment(ctx context.Context, actor Actor, in LiveShipmentInput) (*LiveShipment, error)
	RecordProcessedShipment(ctx context.Context, actor Actor, in ProcessedShipmentInput) (*ProcessedShipment, error)

	ListSites(ctx context.Context) ([]Site, error)
	ListIncomingBatches(ctx context.Context, siteID *int64, fromDate, toDate string) ([]IncomingBatch, error)
	ListMortality(ctx context.Context, siteID *int64, fromDate, toDate string) ([]MortalityRecord, error)
	ListLiveShipments(ctx context.Context, siteID *int64, fromDate, toDate string) ([]LiveShipment, error)
	ListProcessedShipments(ctx context.Context, fromDate, toDate string) ([]ProcessedShipment, error)
}

type IncomingBatchInput struct {
	SiteID         int64
	ArrivalDate    string
	CageLabel      string
	BirdCount      int64
	TotalWeight    decimal.Decimal
	PricePerKg     decimal.Decimal
	TransferAmount decimal.Decimal
}

type MortalityInput struct {
	SiteID      int64
	RecordDate  string
	BirdCount   int64
	ClaimStatus ClaimStatus
	Note        string
}

type LiveShipmentInput struct {
	SiteID       int64
	ShipDate     string
	CustomerName string
	BirdCount    int64
	TotalWeight  decimal.Decimal
	UnitPrice    decimal.Decimal
	SaleAmount   decimal.Decimal
	Deduction    decimal.Decimal
}

type ProcessedShipmentInput struct {
	ShipDate     string
	CustomerName string
	Quantity     decimal.Decimal
	TotalWeight  decimal.Decimal
	UnitPrice    decimal.Decimal
	SaleAmount   decimal.Decimal
	Deduction    decimal.Decimal
}

type movementService struct {
	pool *pgxpool.Pool
}

// NewMovementService constructs a MovementService backed by PostgreSQL.
func NewMovementService(pool *pgxpool.Pool) MovementService {
	return &movementService{pool: pool}
}

// requireSite verifies a site exists; movements always belong to a site.
func requireSite(ctx context.Context, q pgxQuerier, siteID int64) error {
	var name string
	err := q.QueryRow(ctx, "SELECT name FROM sites WHERE id = $1", siteID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("site", siteID)
		}
		return fmt.Errorf("failed to resolve site %d: %w", siteID, err)
	}
	return nil
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// lookup helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func validDate(field, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return validationf("invalid %s %q", field, value)
	}
	return nil
}

// ── Writers ───────────────────────────────────────────────────────────────────

func (s *movementService) RecordIncomingBatch(ctx context.Context, actor Actor, in IncomingBatchInput) (*IncomingBatch, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if in.BirdCount <= 0 {
		return nil, validationf("bird count must be positive, got %d", in.BirdCount)
	}
	if in.TotalWeight.IsNegative() || in.PricePerKg.IsNegative() {
		return nil, validationf("weight and price must not be negative")
	}
	if err := validDate("arrival date", in.ArrivalDate); err != nil {
		return nil, err
	}
	if err := requireSite(ctx, s.pool, in.SiteID); err != nil {
		return nil, err
	}

	totalPrice := in.TotalWeight.Mul(in.PricePerKg)
	if in.TransferAmount.GreaterThan(totalPrice) {
		return nil, validationf("transfer amount %s exceeds total price %s", in.TransferAmount, totalPrice)
	}
	supplierBalance := totalPrice.Sub(in.TransferAmount)

	var b IncomingBatch
	err := s.pool.QueryRow(ctx, `
		INSERT INTO incoming_batches
			(site_id, arrival_date, cage_label, bird_count, total_weight,
			 price_per_kg, total_price, transfer_amount, supplier_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, site_id, arrival_date::text, cage_label, bird_count, total_weight,
		          price_per_kg, total_price, transfer_amount, supplier_balance, created_at
	`, in.SiteID, in.ArrivalDate, in.CageLabel, in.BirdCount, in.TotalWeight,
		in.PricePerKg, totalPrice, in.TransferAmount, supplierBalance).Scan(
		&b.ID, &b.SiteID, &b.ArrivalDate, &b.CageLabel, &b.BirdCount, &b.TotalWeight,
		&b.PricePerKg, &b.TotalPrice, &b.TransferAmount, &b.SupplierBalance, &b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert incoming batch: %w", err)
	}
	return &b, nil
}

func (s *movementService) RecordMortality(ctx context.Context, actor Actor, in MortalityInput) (*MortalityRecord, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if in.BirdCount <= 0 {
		return nil, validationf("bird count must be positive, got %d", in.BirdCount)
	}
	if in.ClaimStatus != ClaimClaimable && in.ClaimStatus != ClaimNotClaimable {
		return nil, validationf("unknown claim status %q", in.ClaimStatus)
	}
	if err := validDate("record date", in.RecordDate); err != nil {
		return nil, err
	}
	if err := requireSite(ctx, s.pool, in.SiteID); err != nil {
		return nil, err
	}

	var m MortalityRecord
	err := s.pool.QueryRow(ctx, `
		INSERT INTO mortality_records (site_id, record_date, bird_count, claim_status, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, site_id, record_date::text, bird_count, claim_status, note, created_at
	`, in.SiteID, in.RecordDate, in.BirdCount, string(in.ClaimStatus), in.Note).Scan(
		&m.ID, &m.SiteID, &m.RecordDate, &m.BirdCount, &m.ClaimStatus, &m.Note, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mortality record: %w", err)
	}
	return &m, nil
}

func (s *movementService) RecordLiveShipment(ctx context.Context, actor Actor, in LiveShipmentInput) (*LiveShipment, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if in.BirdCount <= 0 {
		return nil, validationf("bird count must be positive, got %d", in.BirdCount)
	}
	if in.Deduction.GreaterThan(in.SaleAmount) {
		return nil, validationf("deduction %s exceeds sale amount %s", in.Deduction, in.SaleAmount)
	}
	if err := validDate("ship date", in.ShipDate); err != nil {
		return nil, err
	}
	if err := requireSite(ctx, s.pool, in.SiteID); err != nil {
		return nil, err
	}

	net := in.SaleAmount.Sub(in.Deduction)

	var sh LiveShipment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO live_shipments
			(site_id, ship_date, customer_name, bird_count, total_weight,
			 unit_price, sale_amount, deduction, net_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, site_id, ship_date::text, customer_name, bird_count, total_weight,
		          unit_price, sale_amount, deduction, net_amount, created_at
	`, in.SiteID, in.ShipDate, in.CustomerName, in.BirdCount, in.TotalWeight,
		in.UnitPrice, in.SaleAmount, in.Deduction, net).Scan(
		&sh.ID, &sh.SiteID, &sh.ShipDate, &sh.CustomerName, &sh.BirdCount, &sh.TotalWeight,
		&sh.UnitPrice, &sh.SaleAmount, &sh.Deduction, &sh.NetAmount, &sh.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert live shipment: %w", err)
	}
	return &sh, nil
}

func (s *movementService) RecordProcessedShipment(ctx context.Context, actor Actor, in ProcessedShipmentInput) (*ProcessedShipment, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, validationf("quantity must be positive, got %s", in.Quantity)
	}
	if in.Deduction.GreaterThan(in.SaleAmount) {
		return nil, validationf("deduction %s exceeds sale amount %s", in.Deduction, in.SaleAmount)
	}
	if err := validDate("ship date", in.ShipDate); err != nil {
		return nil, err
	}

	net := in.SaleAmount.Sub(in.Deduction)

	var sh ProcessedShipment
	err := s.pool.QueryRow(ctx, `
		INSERT INTO processed_shipments
			(ship_date, customer_name, quantity, total_weight, unit_price, sale_amount, deduction, net_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, ship_date::text, customer_name, quantity, total_weight,
		          unit_price, sale_amount, deduction, net_amount, created_at
	`, in.ShipDate, in.CustomerName, in.Quantity, in.TotalWeight,
		in.UnitPrice, in.SaleAmount, in.Deduction, net).Scan(
		&sh.ID, &sh.ShipDate, &sh.CustomerName, &sh.Quantity, &sh.TotalWeight,
		&sh.UnitPrice, &sh.SaleAmount, &sh.Deduction, &sh.NetAmount, &sh.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert processed shipment: %w", err)
	}
	return &sh, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *movementService) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM sites ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Name); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// dateRangeClause appends optional site and date-range predicates to a query.
// dateCol is the stream's date column name.
func dateRangeClause(query, dateCol string, siteID *int64, fromDate, toDate string, args []any) (string, []any) {
	if siteID != nil {
		args = append(args, *siteID)
		query += fmt.Sprintf(" AND site_id = $%d", len(args))
	}
	if fromDate != "" {
		args = append(args, fromDate)
		query += fmt.Sprintf(" AND %s >= $%d::date", dateCol, len(args))
	}
	if toDate != "" {
		args = append(args, toDate)
		query += fmt.Sprintf(" AND %s <= $%d::date", dateCol, len(args))
	}
	return query, args
}

func (s *movementService) ListIncomingBatches(ctx context.Context, siteID *int64, fromDate, toDate string) ([]IncomingBatch, error) {
	query := `
		SELECT id, site_id, arrival_date::text, cage_label, bird_count, total_weight,
		       price_per_kg, total_price, transfer_amount, supplier_balance, created_at
		FROM incoming_batches
		WHERE true`
	query, args := dateRangeClause(query, "arrival_date", siteID, fromDate, toDate, nil)
	query += " ORDER BY arrival_date, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incoming batches: %w", err)
	}
	defer rows.Close()

	var batches []IncomingBatch
	for rows.Next() {
		var b IncomingBatch
		if err := rows.Scan(&b.ID, &b.SiteID, &b.ArrivalDate, &b.CageLabel, &b.BirdCount, &b.TotalWeight,
			&b.PricePerKg, &b.TotalPrice, &b.TransferAmount, &b.SupplierBalance, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incoming batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *movementService) ListMortality(ctx context.Context, siteID *int64, fromDate, toDate string) ([]MortalityRecord, error) {
	query := `
		SELECT id, site_id, record_date::text, bird_count, claim_status, note, created_at
		FROM mortality_records
		WHERE true`
	query, args := dateRangeClause(query, "record_date", siteID, fromDate, toDate, nil)
	query += " ORDER BY record_date, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mortality records: %w", err)
	}
	defer rows.Close()

	var records []MortalityRecord
	for rows.Next() {
		var m MortalityRecord
		if err := rows.Scan(&m.ID, &m.SiteID, &m.RecordDate, &m.BirdCount,
			&m.ClaimStatus, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mortality record: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func (s *movementService) ListLiveShipments(ctx context.Context, siteID *int64, fromDate, toDate string) ([]LiveShipment, error) {
	query := `
		SELECT id, site_id, ship_date::text, customer_name, bird_count, total_weight,
		       unit_price, sale_amount, deduction, net_amount, created_at
		FROM live_shipments
		WHERE true`
	query, args := dateRangeClause(query, "ship_date", siteID, fromDate, toDate, nil)
	query += " ORDER BY ship_date, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query live shipments: %w", err)
	}
	defer rows.Close()

	var shipments []LiveShipment
	for rows.Next() {
		var sh LiveShipment
		if err := rows.Scan(&sh.ID, &sh.SiteID, &sh.ShipDate, &sh.CustomerName, &sh.BirdCount, &sh.TotalWeight,
			&sh.UnitPrice, &sh.SaleAmount, &sh.Deduction, &sh.NetAmount, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan live shipment: %w", err)
		}
		shipments = append(shipments, sh)
	}
	return shipments, rows.Err()
}

func (s *movementService) ListProcessedShipments(ctx context.Context, fromDate, toDate string) ([]ProcessedShipment, error) {
	query := `
		SELECT id, ship_date::text, customer_name, quantity, total_weight,
		       unit_price, sale_amount, deduction, net_amount, created_at
		FROM processed_shipments
		WHERE true`
	query, args := dateRangeClause(query, "ship_date", nil, fromDate, toDate, nil)
	query += " ORDER BY ship_date, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed shipments: %w", err)
	}
	defer rows.Close()

	var shipments []ProcessedShipment
	for rows.Next() {
		var sh ProcessedShipment
		if err := rows.Scan(&sh.ID, &sh.ShipDate, &sh.CustomerName, &sh.Quantity, &sh.TotalWeight,
			&sh.UnitPrice, &sh.SaleAmount, &sh.Deduction, &sh.NetAmount, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processed shipment: %w", err)
		}
		shipments = append(shipments, sh)
	}
	return shipments, rows.Err()
}
