package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Report types ──────────────────────────────────────────────────────────────

// DailyStockRow is one site's stock position for a single day. CarryIn is the
// cumulative stock through the previous day; StockTotal is CarryIn plus the
// day's net movement. A negative StockTotal is reported as-is — it signals a
// data-entry anomaly upstream, and clamping it would hide the signal.
type DailyStockRow struct {
	SiteID         int64  `json:"site_id"`
	SiteName       string `json:"site_name"`
	CarryIn        int64  `json:"carry_in"`
	IncomingToday  int64  `json:"incoming_today"`
	MortalityToday int64  `json:"mortality_today"`
	OutgoingToday  int64  `json:"outgoing_today"`
	StockTotal     int64  `json:"stock_total"`
}

// DailyStockReport is the per-site breakdown plus the grand total across the
// requested sites.
type DailyStockReport struct {
	Date  string          `json:"date"`
	Sites []DailyStockRow `json:"sites"`
	Total DailyStockRow   `json:"total"`
}

// MonthlyStockRow is one site's aggregate movement over a closed month.
// Difference = Incoming - Mortality - Outgoing.
type MonthlyStockRow struct {
	SiteID         int64  `json:"site_id"`
	SiteName       string `json:"site_name"`
	IncomingTotal  int64  `json:"incoming_total"`
	MortalityTotal int64  `json:"mortality_total"`
	OutgoingTotal  int64  `json:"outgoing_total"`
	Difference     int64  `json:"difference"`
}

// MonthlyStockReport aggregates a calendar month per site with a grand total.
type MonthlyStockReport struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Sites []MonthlyStockRow `json:"sites"`
	Total MonthlyStockRow   `json:"total"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// StockService computes cumulative live-bird stock from the three movement
// streams. No running balance is stored anywhere: every figure is re-derived
// by aggregating movement rows, so the numbers can never drift.
type StockService interface {
	// StockThrough returns the cumulative stock at a site through the end of
	// the given date: incoming minus mortality minus outgoing, all dates <= d.
	StockThrough(ctx context.Context, siteID int64, date string) (int64, error)

	// DailyReport computes carry-in, per-day movement, and closing stock for
	// the given date. siteID nil means all sites. A site with no movement in
	// range contributes zero rows, not an error.
	DailyReport(ctx context.Context, siteID *int64, date string) (*DailyStockReport, error)

	// MonthlyReport aggregates the closed date interval of a calendar month.
	// A month lying entirely in the future returns all-zero results without
	// touching the movement tables.
	MonthlyReport(ctx context.Context, siteID *int64, year, month int) (*MonthlyStockReport, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

// NewStockService constructs a StockService backed by PostgreSQL.
func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

// ── StockThrough ──────────────────────────────────────────────────────────────

func (s *stockService) StockThrough(ctx context.Context, siteID int64, date string) (int64, error) {
	if err := validDate("date", date); err != nil {
		return 0, err
	}

	// Empty streams sum to zero by COALESCE, so a site predating its first
	// delivery reports stock 0 rather than erroring.
	const q = `
		SELECT
			COALESCE((SELECT SUM(bird_count) FROM incoming_batches
			          WHERE site_id = $1 AND arrival_date <= $2::date), 0)
			-
			COALESCE((SELECT SUM(bird_count) FROM mortality_records
			          WHERE site_id = $1 AND record_date <= $2::date), 0)
			-
			COALESCE((SELECT SUM(bird_count) FROM live_shipments
			          WHERE site_id = $1 AND ship_date <= $2::date), 0)`

	var stock int64
	if err := s.pool.QueryRow(ctx, q, siteID, date).Scan(&stock); err != nil {
		return 0, fmt.Errorf("failed to compute cumulative stock for site %d: %w", siteID, err)
	}
	return stock, nil
}

// ── DailyReport ───────────────────────────────────────────────────────────────

func (s *stockService) DailyReport(ctx context.Context, siteID *int64, date string) (*DailyStockReport, error) {
	if err := validDate("date", date); err != nil {
		return nil, err
	}

	// One pass per site: cumulative sums through yesterday for carry-in,
	// per-day sums for today's movement.
	query := `
		SELECT st.id, st.name,
		       COALESCE((SELECT SUM(bird_count) FROM incoming_batches
		                 WHERE site_id = st.id AND arrival_date < $1::date), 0)
		       - COALESCE((SELECT SUM(bird_count) FROM mortality_records
		                   WHERE site_id = st.id AND record_date < $1::date), 0)
		       - COALESCE((SELECT SUM(bird_count) FROM live_shipments
		                   WHERE site_id = st.id AND ship_date < $1::date), 0) AS carry_in,
		       COALESCE((SELECT SUM(bird_count) FROM incoming_batches
		                 WHERE site_id = st.id AND arrival_date = $1::date), 0) AS incoming_today,
		       COALESCE((SELECT SUM(bird_count) FROM mortality_records
		                 WHERE site_id = st.id AND record_date = $1::date), 0) AS mortality_today,
		       COALESCE((SELECT SUM(bird_count) FROM live_shipments
		                 WHERE site_id = st.id AND ship_date = $1::date), 0) AS outgoing_today
		FROM sites st`
	args := []any{date}
	if siteID != nil {
		args = append(args, *siteID)
		query += " WHERE st.id = $2"
	}
	query += " ORDER BY st.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stock report: %w", err)
	}
	defer rows.Close()

	report := &DailyStockReport{Date: date}
	for rows.Next() {
		var r DailyStockRow
		if err := rows.Scan(&r.SiteID, &r.SiteName, &r.CarryIn,
			&r.IncomingToday, &r.MortalityToday, &r.OutgoingToday); err != nil {
			return nil, fmt.Errorf("failed to scan daily stock row: %w", err)
		}
		r.StockTotal = r.CarryIn + r.IncomingToday - r.MortalityToday - r.OutgoingToday

		report.Sites = append(report.Sites, r)
		report.Total.CarryIn += r.CarryIn
		report.Total.IncomingToday += r.IncomingToday
		report.Total.MortalityToday += r.MortalityToday
		report.Total.OutgoingToday += r.OutgoingToday
		report.Total.StockTotal += r.StockTotal
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily stock row iteration error: %w", err)
	}

	if siteID != nil && len(report.Sites) == 0 {
		return nil, notFound("site", *siteID)
	}
	report.Total.SiteName = "TOTAL"
	return report, nil
}

// ── MonthlyReport ─────────────────────────────────────────────────────────────

func (s *stockService) MonthlyReport(ctx context.Context, siteID *int64, year, month int) (*MonthlyStockReport, error) {
	if month < 1 || month > 12 {
		return nil, validationf("invalid month %d", month)
	}

	report := &MonthlyStockReport{Year: year, Month: month}
	report.Total.SiteName = "TOTAL"

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if monthStart.After(time.Now()) {
		// Entirely in the future: nothing can have moved yet.
		return report, nil
	}
	monthEnd := monthStart.AddDate(0, 1, -1)

	from := monthStart.Format("2006-01-02")
	to := monthEnd.Format("2006-01-02")

	query := `
		SELECT st.id, st.name,
		       COALESCE((SELECT SUM(bird_count) FROM incoming_batches
		                 WHERE site_id = st.id AND arrival_date BETWEEN $1::date AND $2::date), 0),
		       COALESCE((SELECT SUM(bird_count) FROM mortality_records
		                 WHERE site_id = st.id AND record_date BETWEEN $1::date AND $2::date), 0),
		       COALESCE((SELECT SUM(bird_count) FROM live_shipments
		                 WHERE site_id = st.id AND ship_date BETWEEN $1::date AND $2::date), 0)
		FROM sites st`
	args := []any{from, to}
	if siteID != nil {
		args = append(args, *siteID)
		query += " WHERE st.id = $3"
	}
	query += " ORDER BY st.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stock report: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r MonthlyStockRow
		if err := rows.Scan(&r.SiteID, &r.SiteName,
			&r.IncomingTotal, &r.MortalityTotal, &r.OutgoingTotal); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stock row: %w", err)
		}
		r.Difference = r.IncomingTotal - r.MortalityTotal - r.OutgoingTotal

		report.Sites = append(report.Sites, r)
		report.Total.IncomingTotal += r.IncomingTotal
		report.Total.MortalityTotal += r.MortalityTotal
		report.Total.OutgoingTotal += r.OutgoingTotal
		report.Total.Difference += r.Difference
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monthly stock row iteration error: %w", err)
	}

	if siteID != nil && len(report.Sites) == 0 {
		return nil, notFound("site", *siteID)
	}
	return report, nil
}
