package app

import "github.com/shopspring/decimal"

// CreateSaleRequest is the order-entry payload for a draft sale.
type CreateSaleRequest struct {
	CustomerID  int64             `json:"customer_id"`
	TrxDate     string            `json:"trx_date"`
	Category    string            `json:"category"`
	GrossAmount decimal.Decimal   `json:"gross_amount"`
	Deduction   decimal.Decimal   `json:"deduction"`
	Items       []SaleItemRequest `json:"items"`
}

// SaleItemRequest is one pre-computed invoice line.
type SaleItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Weight      decimal.Decimal `json:"weight"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// FinalizeSaleRequest carries the initial payment captured at finalize time.
// PaymentAmount may be zero for a pure credit sale.
type FinalizeSaleRequest struct {
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Method        string          `json:"method"`
}

// ApplyPaymentRequest records one payment against a finalized sale.
// PayDate empty means today. Reason is mandatory and lands in the audit trail.
type ApplyPaymentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	PayDate string          `json:"pay_date"`
	Reason  string          `json:"reason"`
}

// CustomerRequest is the create/update payload for a customer master record.
type CustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// IncomingBatchRequest records one purchase delivery at a site.
type IncomingBatchRequest struct {
	SiteID         int64           `json:"site_id"`
	ArrivalDate    string          `json:"arrival_date"`
	CageLabel      string          `json:"cage_label"`
	BirdCount      int64           `json:"bird_count"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	PricePerKg     decimal.Decimal `json:"price_per_kg"`
	TransferAmount decimal.Decimal `json:"transfer_amount"`
}

// MortalityRequest records one death incident at a site.
type MortalityRequest struct {
	SiteID      int64  `json:"site_id"`
	RecordDate  string `json:"record_date"`
	BirdCount   int64  `json:"bird_count"`
	ClaimStatus string `json:"claim_status"`
	Note        string `json:"note"`
}

// LiveShipmentRequest records one outgoing live-bird shipment.
type LiveShipmentRequest struct {
	SiteID       int64           `json:"site_id"`
	ShipDate     string          `json:"ship_date"`
	CustomerName string          `json:"customer_name"`
	BirdCount    int64           `json:"bird_count"`
	TotalWeight  decimal.Decimal `json:"total_weight"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
	Deduction    decimal.Decimal `json:"deduction"`
}

// ProcessedShipmentRequest records one outgoing processed-meat shipment.
type ProcessedShipmentRequest struct {
	ShipDate     string          `json:"ship_date"`
	CustomerName string          `json:"customer_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalWeight  decimal.Decimal `json:"total_weight"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
	Deduction    decimal.Decimal `json:"deduction"`
}
