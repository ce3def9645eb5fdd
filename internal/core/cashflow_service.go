package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// CashInDetail breaks daily cash received into same-day sale payments per
// category and later receivable collections. The three buckets partition the
// day's payment records, so their sum never double counts an initial payment.
type CashInDetail struct {
	ProcessedMeatSales decimal.Decimal `json:"processed_meat_sales"`
	LiveBirdSales      decimal.Decimal `json:"live_bird_sales"`
	Collections        decimal.Decimal `json:"collections"`
	Total              decimal.Decimal `json:"total"`
}

// CashOutDetail breaks daily cash spent into purchases, shipment deductions,
// and valued mortality losses.
type CashOutDetail struct {
	IncomingPurchases   decimal.Decimal `json:"incoming_purchases"`
	LiveDeductions      decimal.Decimal `json:"live_deductions"`
	ProcessedDeductions decimal.Decimal `json:"processed_deductions"`
	MortalityLoss       decimal.Decimal `json:"mortality_loss"`
	Total               decimal.Decimal `json:"total"`
}

// DailyCashStatement is the realized cash position for one calendar day.
type DailyCashStatement struct {
	Date    string          `json:"date"`
	CashIn  CashInDetail    `json:"cash_in"`
	CashOut CashOutDetail   `json:"cash_out"`
	Net     decimal.Decimal `json:"net"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// CashflowService values mortality losses against purchase batches and
// assembles the daily cash statement. Cash in is sourced purely from payment
// events — never from shipment totals — so an invoice can never be counted
// twice through both the shipment and the sale.
type CashflowService interface {
	// MortalityLossValue prices a mortality record against the nearest
	// incoming batch at the same site on or before the record's date.
	// CLAIMABLE records and records with no preceding batch value at zero.
	MortalityLossValue(ctx context.Context, mortalityID int64) (decimal.Decimal, error)

	// DailyCashStatement computes realized cash in/out/net for one day.
	DailyCashStatement(ctx context.Context, date string) (*DailyCashStatement, error)
}

type cashflowService struct {
	pool *pgxpool.Pool
}

// NewCashflowService constructs a CashflowService backed by PostgreSQL.
func NewCashflowService(pool *pgxpool.Pool) CashflowService {
	return &cashflowService{pool: pool}
}

// ── Mortality loss valuation ──────────────────────────────────────────────────

func (s *cashflowService) MortalityLossValue(ctx context.Context, mortalityID int64) (decimal.Decimal, error) {
	var (
		siteID      int64
		recordDate  string
		birdCount   int64
		claimStatus string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT site_id, record_date::text, bird_count, claim_status
		FROM mortality_records
		WHERE id = $1
	`, mortalityID).Scan(&siteID, &recordDate, &birdCount, &claimStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, notFound("mortality record", mortalityID)
		}
		return decimal.Zero, fmt.Errorf("failed to fetch mortality record %d: %w", mortalityID, err)
	}

	if ClaimStatus(claimStatus) != ClaimNotClaimable {
		// Claimable losses are assumed recoverable and carry no cash cost.
		return decimal.Zero, nil
	}

	batch, err := s.nearestBatch(ctx, siteID, recordDate)
	if err != nil {
		return decimal.Zero, err
	}
	if batch == nil {
		return decimal.Zero, nil
	}

	return lossValue(birdCount, *batch), nil
}

// nearestBatch finds the latest incoming batch at a site on or before date —
// a backward range lookup, not FIFO by insertion order. Returns nil when no
// batch precedes the date.
func (s *cashflowService) nearestBatch(ctx context.Context, siteID int64, date string) (*IncomingBatch, error) {
	var b IncomingBatch
	err := s.pool.QueryRow(ctx, `
		SELECT id, site_id, arrival_date::text, bird_count, total_weight, price_per_kg
		FROM incoming_batches
		WHERE site_id = $1 AND arrival_date <= $2::date
		ORDER BY arrival_date DESC, id DESC
		LIMIT 1
	`, siteID, date).Scan(&b.ID, &b.SiteID, &b.ArrivalDate, &b.BirdCount, &b.TotalWeight, &b.PricePerKg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find batch for site %d before %s: %w", siteID, date, err)
	}
	return &b, nil
}

// lossValue prices dead birds at the batch's average unit weight times its
// purchase price per kg.
func lossValue(birdCount int64, batch IncomingBatch) decimal.Decimal {
	return decimal.NewFromInt(birdCount).Mul(batch.UnitWeight()).Mul(batch.PricePerKg)
}

// ── Daily cash statement ──────────────────────────────────────────────────────

func (s *cashflowService) DailyCashStatement(ctx context.Context, date string) (*DailyCashStatement, error) {
	if err := validDate("date", date); err != nil {
		return nil, err
	}

	stmt := &DailyCashStatement{Date: date}

	// Cash in: the day's payment records, partitioned by whether the payment
	// landed on its sale's own transaction date (a finalize-time payment,
	// split by category) or later (a receivable collection).
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(pr.amount) FILTER (WHERE pr.pay_date = s.trx_date AND s.category = 'PROCESSED_MEAT'), 0),
			COALESCE(SUM(pr.amount) FILTER (WHERE pr.pay_date = s.trx_date AND s.category = 'LIVE_BIRD'), 0),
			COALESCE(SUM(pr.amount) FILTER (WHERE pr.pay_date <> s.trx_date), 0)
		FROM payment_records pr
		JOIN sales s ON s.id = pr.sale_id
		WHERE pr.pay_date = $1::date
	`, date).Scan(&stmt.CashIn.ProcessedMeatSales, &stmt.CashIn.LiveBirdSales, &stmt.CashIn.Collections)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cash in for %s: %w", date, err)
	}
	stmt.CashIn.Total = stmt.CashIn.ProcessedMeatSales.
		Add(stmt.CashIn.LiveBirdSales).
		Add(stmt.CashIn.Collections)

	// Cash out: purchases and deductions are straight per-day sums.
	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(total_price) FROM incoming_batches WHERE arrival_date = $1::date), 0),
			COALESCE((SELECT SUM(deduction) FROM live_shipments WHERE ship_date = $1::date), 0),
			COALESCE((SELECT SUM(deduction) FROM processed_shipments WHERE ship_date = $1::date), 0)
	`, date).Scan(&stmt.CashOut.IncomingPurchases, &stmt.CashOut.LiveDeductions, &stmt.CashOut.ProcessedDeductions)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cash out for %s: %w", date, err)
	}

	// Mortality loss: each NOT_CLAIMABLE record valued against its own
	// nearest preceding batch via a lateral backward lookup.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			mr.bird_count
			* CASE WHEN b.bird_count = 0 THEN 0 ELSE b.total_weight / b.bird_count END
			* b.price_per_kg
		), 0)
		FROM mortality_records mr
		LEFT JOIN LATERAL (
			SELECT bird_count, total_weight, price_per_kg
			FROM incoming_batches
			WHERE site_id = mr.site_id AND arrival_date <= mr.record_date
			ORDER BY arrival_date DESC, id DESC
			LIMIT 1
		) b ON true
		WHERE mr.record_date = $1::date
		  AND mr.claim_status = 'NOT_CLAIMABLE'
		  AND b.price_per_kg IS NOT NULL
	`, date).Scan(&stmt.CashOut.MortalityLoss)
	if err != nil {
		return nil, fmt.Errorf("failed to value mortality losses for %s: %w", date, err)
	}

	stmt.CashOut.Total = stmt.CashOut.IncomingPurchases.
		Add(stmt.CashOut.LiveDeductions).
		Add(stmt.CashOut.ProcessedDeductions).
		Add(stmt.CashOut.MortalityLoss)

	stmt.Net = stmt.CashIn.Total.Sub(stmt.CashOut.Total)
	return stmt, nil
}
