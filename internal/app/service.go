package app

import (
	"context"

	"livestock-ops/internal/core"
)

// ApplicationService is the single interface all UI adapters call. It decouples
// presentation from business logic. Implementations must contain no
// fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns the user profile by ID.
	GetUser(ctx context.Context, userID int64) (*UserResult, error)

	// ── Receivables ───────────────────────────────────────────────────────────

	// CreateSale creates a new DRAFT sale with its line items.
	CreateSale(ctx context.Context, actor core.Actor, req CreateSaleRequest) (*SaleResult, error)

	// FinalizeSale performs the one-time DRAFT -> finalized transition,
	// allocating the period-scoped document number and recording the initial
	// payment.
	FinalizeSale(ctx context.Context, actor core.Actor, saleID int64, req FinalizeSaleRequest) (*SaleResult, error)

	// ApplyPayment appends a payment record to a finalized sale and recomputes
	// its cached totals from the full payment history.
	ApplyPayment(ctx context.Context, actor core.Actor, saleID int64, req ApplyPaymentRequest) (*SaleResult, error)

	// RecomputeBalance re-derives a sale's cached totals from its payment
	// records without adding a payment.
	RecomputeBalance(ctx context.Context, actor core.Actor, saleID int64) (*SaleResult, error)

	// GetSale returns one sale with its line items.
	GetSale(ctx context.Context, saleID int64) (*SaleResult, error)

	// ListSales returns all sales, optionally filtered by status string.
	ListSales(ctx context.Context, status *string) (*SaleListResult, error)

	// ListReceivables returns finalized sales with outstanding balance,
	// optionally scoped to one customer.
	ListReceivables(ctx context.Context, customerID *int64) (*SaleListResult, error)

	// ListPayments returns a sale's payment history in insertion order.
	ListPayments(ctx context.Context, saleID int64) (*PaymentListResult, error)

	// ListAuditLog returns a sale's balance audit trail in insertion order.
	ListAuditLog(ctx context.Context, saleID int64) (*AuditLogResult, error)

	// ── Customers ─────────────────────────────────────────────────────────────

	CreateCustomer(ctx context.Context, actor core.Actor, req CustomerRequest) (*CustomerResult, error)
	UpdateCustomer(ctx context.Context, actor core.Actor, customerID int64, req CustomerRequest) (*CustomerResult, error)
	DeleteCustomer(ctx context.Context, actor core.Actor, customerID int64) error
	GetCustomer(ctx context.Context, customerID int64) (*CustomerResult, error)
	ListCustomers(ctx context.Context) (*CustomerListResult, error)

	// ── Movements ─────────────────────────────────────────────────────────────

	RecordIncomingBatch(ctx context.Context, actor core.Actor, req IncomingBatchRequest) (*core.IncomingBatch, error)
	RecordMortality(ctx context.Context, actor core.Actor, req MortalityRequest) (*core.MortalityRecord, error)
	RecordLiveShipment(ctx context.Context, actor core.Actor, req LiveShipmentRequest) (*core.LiveShipment, error)
	RecordProcessedShipment(ctx context.Context, actor core.Actor, req ProcessedShipmentRequest) (*core.ProcessedShipment, error)

	ListSites(ctx context.Context) (*SiteListResult, error)
	ListIncomingBatches(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.IncomingBatch, error)
	ListMortality(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.MortalityRecord, error)
	ListLiveShipments(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.LiveShipment, error)
	ListProcessedShipments(ctx context.Context, fromDate, toDate string) ([]core.ProcessedShipment, error)

	// ── Reports ───────────────────────────────────────────────────────────────

	// DailyStockReport returns per-site carry-in, movement, and closing stock
	// for one date. siteID nil means all sites.
	DailyStockReport(ctx context.Context, siteID *int64, date string) (*core.DailyStockReport, error)

	// MonthlyStockReport aggregates a calendar month per site.
	MonthlyStockReport(ctx context.Context, siteID *int64, year, month int) (*core.MonthlyStockReport, error)

	// DailyCashStatement computes realized cash in/out/net for one day.
	DailyCashStatement(ctx context.Context, date string) (*core.DailyCashStatement, error)

	// MortalityLossValue prices one mortality record against the nearest
	// preceding incoming batch at its site.
	MortalityLossValue(ctx context.Context, mortalityID int64) (*MortalityLossResult, error)
}
