package app

import (
	"github.com/shopspring/decimal"

	"livestock-ops/internal/core"
)

// UserSession is returned by AuthenticateUser on success.
type UserSession struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserResult is a user profile without credential material.
type UserResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type SaleResult struct {
	Sale *core.Sale `json:"sale"`
}

type SaleListResult struct {
	Sales []core.Sale `json:"sales"`
}

type PaymentListResult struct {
	Payments []core.PaymentRecord `json:"payments"`
}

type AuditLogResult struct {
	Entries []core.BalanceAuditLog `json:"entries"`
}

type CustomerResult struct {
	Customer *core.Customer `json:"customer"`
}

type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

type SiteListResult struct {
	Sites []core.Site `json:"sites"`
}

// MortalityLossResult is the on-demand valuation of one mortality record.
type MortalityLossResult struct {
	MortalityID int64           `json:"mortality_id"`
	LossValue   decimal.Decimal `json:"loss_value"`
}
