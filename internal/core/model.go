package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the caller's authorization level, supplied by the auth adapter on
// every mutating call. Ledger and reconciliation operations require ADMIN or
// OWNER.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
	RoleStaff Role = "STAFF"
)

// Actor identifies who performed a mutating operation, for the audit trail.
type Actor struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// CanMutateLedger reports whether this actor may run ledger and
// reconciliation operations.
func (a Actor) CanMutateLedger() bool {
	return a.Role == RoleAdmin || a.Role == RoleOwner
}

// Site is a physical location; the unit of stock accounting. Immutable
// reference data.
type Site struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IncomingBatch is one stock purchase delivery at a site. Read-only after
// creation. SupplierBalance is the running amount still owed to the supplier
// for this batch (total price minus transfers).
type IncomingBatch struct {
	ID              int64           `json:"id"`
	SiteID          int64           `json:"site_id"`
	ArrivalDate     string          `json:"arrival_date"`
	CageLabel       string          `json:"cage_label"`
	BirdCount       int64           `json:"bird_count"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	PricePerKg      decimal.Decimal `json:"price_per_kg"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	TransferAmount  decimal.Decimal `json:"transfer_amount"`
	SupplierBalance decimal.Decimal `json:"supplier_balance"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UnitWeight returns total weight divided by bird count, or zero when the
// batch has no birds recorded.
func (b IncomingBatch) UnitWeight() decimal.Decimal {
	if b.BirdCount == 0 {
		return decimal.Zero
	}
	return b.TotalWeight.Div(decimal.NewFromInt(b.BirdCount))
}

// ClaimStatus flags whether a mortality loss is expected to be compensated
// externally. Only NOT_CLAIMABLE records enter cash-loss accounting.
type ClaimStatus string

const (
	ClaimClaimable    ClaimStatus = "CLAIMABLE"
	ClaimNotClaimable ClaimStatus = "NOT_CLAIMABLE"
)

// MortalityRecord is one death incident at a site. Read-only after creation.
// Its cost is never stored: it is valued on demand against the nearest
// preceding incoming batch at the same site.
type MortalityRecord struct {
	ID          int64       `json:"id"`
	SiteID      int64       `json:"site_id"`
	RecordDate  string      `json:"record_date"`
	BirdCount   int64       `json:"bird_count"`
	ClaimStatus ClaimStatus `json:"claim_status"`
	Note        string      `json:"note"`
	CreatedAt   time.Time   `json:"created_at"`
}

// LiveShipment is an outgoing live-bird shipment from a site. Read-only.
// NetAmount = SaleAmount - Deduction, derived at insert.
type LiveShipment struct {
	ID           int64           `json:"id"`
	SiteID       int64           `json:"site_id"`
	ShipDate     string          `json:"ship_date"`
	CustomerName string          `json:"customer_name"`
	BirdCount    int64           `json:"bird_count"`
	TotalWeight  decimal.Decimal `json:"total_weight"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
	Deduction    decimal.Decimal `json:"deduction"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProcessedShipment is an outgoing processed-meat shipment. Keyed by customer
// only — processed stock is not site-scoped. Read-only.
type ProcessedShipment struct {
	ID           int64           `json:"id"`
	ShipDate     string          `json:"ship_date"`
	CustomerName string          `json:"customer_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalWeight  decimal.Decimal `json:"total_weight"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
	Deduction    decimal.Decimal `json:"deduction"`
	NetAmount    decimal.Decimal `json:"net_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Customer is a mutable master record. Deletion is blocked while any of the
// customer's sales still has outstanding balance.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleCategory distinguishes the two commercial streams.
type SaleCategory string

const (
	CategoryProcessedMeat SaleCategory = "PROCESSED_MEAT"
	CategoryLiveBird      SaleCategory = "LIVE_BIRD"
)

// SaleStatus is the closed payment-state enumeration. It is always derived
// from the numeric fields by DeriveSaleStatus, never set independently.
type SaleStatus string

const (
	SaleStatusDraft   SaleStatus = "DRAFT"
	SaleStatusPartial SaleStatus = "PARTIAL"
	SaleStatusDebt    SaleStatus = "DEBT"
	SaleStatusPaid    SaleStatus = "PAID"
)

// DeriveSaleStatus maps a sale's numbers to its post-finalize status:
// PAID when nothing is outstanding, PARTIAL when some payment exists,
// DEBT when none does.
func DeriveSaleStatus(grandTotal, amountPaid decimal.Decimal) SaleStatus {
	outstanding := grandTotal.Sub(amountPaid)
	switch {
	case outstanding.LessThanOrEqual(decimal.Zero):
		return SaleStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return SaleStatusPartial
	default:
		return SaleStatusDebt
	}
}

// Sale is the receivable unit: the customer-facing invoice and its payment
// state. AmountPaid and Outstanding are cached projections of the sale's
// payment records; only the recompute step in the receivable service may
// write them.
type Sale struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	TrxDate        string          `json:"trx_date"`
	Category       SaleCategory    `json:"category"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	Deduction      decimal.Decimal `json:"deduction"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Status         SaleStatus      `json:"status"`
	Finalized      bool            `json:"finalized"`
	PaymentMethod  string          `json:"payment_method"`
	DocumentNumber *string         `json:"document_number,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `json:"items"`
}

// SaleItem is one invoice line. Line arithmetic is the order-entry
// collaborator's responsibility; the core stores lines verbatim and validates
// only the sale-level grand total.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Weight      decimal.Decimal `json:"weight"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PaymentRecord is the append-only source of truth for how much has been paid
// on a sale. One row per payment event, including the initial payment captured
// at finalize time.
type PaymentRecord struct {
	ID         int64           `json:"id"`
	SaleID     int64           `json:"sale_id"`
	CustomerID int64           `json:"customer_id"`
	PayDate    string          `json:"pay_date"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BalanceAuditLog is the append-only audit trail: one entry per
// payment-application event after finalize, capturing the before/after
// snapshot of the sale's cached totals.
type BalanceAuditLog struct {
	ID                int64           `json:"id"`
	SaleID            int64           `json:"sale_id"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	PaidBefore        decimal.Decimal `json:"paid_before"`
	OutstandingBefore decimal.Decimal `json:"outstanding_before"`
	PaidAfter         decimal.Decimal `json:"paid_after"`
	OutstandingAfter  decimal.Decimal `json:"outstanding_after"`
	Reason            string          `json:"reason"`
	Actor             string          `json:"actor"`
	CreatedAt         time.Time       `json:"created_at"`
}

// User is an employee account used by the auth adapter.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
