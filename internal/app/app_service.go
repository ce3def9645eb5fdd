package app

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"livestock-ops/internal/core"
)

type appService struct {
	receivables core.ReceivableService
	movements   core.MovementService
	stock       core.StockService
	cashflow    core.CashflowService
	customers   core.CustomerService
	users       core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	receivables core.ReceivableService,
	movements core.MovementService,
	stock core.StockService,
	cashflow core.CashflowService,
	customers core.CustomerService,
	users core.UserService,
) ApplicationService {
	return &appService{
		receivables: receivables,
		movements:   movements,
		stock:       stock,
		cashflow:    cashflow,
		customers:   customers,
		users:       users,
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

// AuthenticateUser verifies credentials against the stored bcrypt hash.
// Unknown usernames and wrong passwords both surface as core.ErrForbidden so
// callers cannot distinguish the two cases.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, core.ErrForbidden
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, core.ErrForbidden
	}
	return &UserSession{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int64) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{ID: user.ID, Username: user.Username, Role: string(user.Role)}, nil
}

// ── Receivables ───────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, actor core.Actor, req CreateSaleRequest) (*SaleResult, error) {
	items := make([]core.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.SaleItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			Weight:      it.Weight,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}

	sale, err := s.receivables.CreateSale(ctx, actor, core.CreateSaleInput{
		CustomerID:  req.CustomerID,
		TrxDate:     req.TrxDate,
		Category:    core.SaleCategory(req.Category),
		GrossAmount: req.GrossAmount,
		Deduction:   req.Deduction,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) FinalizeSale(ctx context.Context, actor core.Actor, saleID int64, req FinalizeSaleRequest) (*SaleResult, error) {
	sale, err := s.receivables.FinalizeSale(ctx, actor, saleID, req.PaymentAmount, req.Method)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ApplyPayment(ctx context.Context, actor core.Actor, saleID int64, req ApplyPaymentRequest) (*SaleResult, error) {
	sale, err := s.receivables.ApplyPayment(ctx, actor, saleID, req.Amount, req.Method, req.PayDate, req.Reason)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) RecomputeBalance(ctx context.Context, actor core.Actor, saleID int64) (*SaleResult, error) {
	sale, err := s.receivables.RecomputeBalance(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetSale(ctx context.Context, saleID int64) (*SaleResult, error) {
	sale, err := s.receivables.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, status *string) (*SaleListResult, error) {
	var filter *core.SaleStatus
	if status != nil {
		st := core.SaleStatus(*status)
		filter = &st
	}
	sales, err := s.receivables.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) ListReceivables(ctx context.Context, customerID *int64) (*SaleListResult, error) {
	sales, err := s.receivables.ListReceivables(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) ListPayments(ctx context.Context, saleID int64) (*PaymentListResult, error) {
	payments, err := s.receivables.ListPayments(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

func (s *appService) ListAuditLog(ctx context.Context, saleID int64) (*AuditLogResult, error) {
	entries, err := s.receivables.ListAuditLog(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &AuditLogResult{Entries: entries}, nil
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (s *appService) CreateCustomer(ctx context.Context, actor core.Actor, req CustomerRequest) (*CustomerResult, error) {
	c, err := s.customers.CreateCustomer(ctx, actor, req.Name, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) UpdateCustomer(ctx context.Context, actor core.Actor, customerID int64, req CustomerRequest) (*CustomerResult, error) {
	c, err := s.customers.UpdateCustomer(ctx, actor, customerID, req.Name, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) DeleteCustomer(ctx context.Context, actor core.Actor, customerID int64) error {
	return s.customers.DeleteCustomer(ctx, actor, customerID)
}

func (s *appService) GetCustomer(ctx context.Context, customerID int64) (*CustomerResult, error) {
	c, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: c}, nil
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (s *appService) RecordIncomingBatch(ctx context.Context, actor core.Actor, req IncomingBatchRequest) (*core.IncomingBatch, error) {
	return s.movements.RecordIncomingBatch(ctx, actor, core.IncomingBatchInput{
		SiteID:         req.SiteID,
		ArrivalDate:    req.ArrivalDate,
		CageLabel:      req.CageLabel,
		BirdCount:      req.BirdCount,
		TotalWeight:    req.TotalWeight,
		PricePerKg:     req.PricePerKg,
		TransferAmount: req.TransferAmount,
	})
}

func (s *appService) RecordMortality(ctx context.Context, actor core.Actor, req MortalityRequest) (*core.MortalityRecord, error) {
	return s.movements.RecordMortality(ctx, actor, core.MortalityInput{
		SiteID:      req.SiteID,
		RecordDate:  req.RecordDate,
		BirdCount:   req.BirdCount,
		ClaimStatus: core.ClaimStatus(req.ClaimStatus),
		Note:        req.Note,
	})
}

func (s *appService) RecordLiveShipment(ctx context.Context, actor core.Actor, req LiveShipmentRequest) (*core.LiveShipment, error) {
	return s.movements.RecordLiveShipment(ctx, actor, core.LiveShipmentInput{
		SiteID:       req.SiteID,
		ShipDate:     req.ShipDate,
		CustomerName: req.CustomerName,
		BirdCount:    req.BirdCount,
		TotalWeight:  req.TotalWeight,
		UnitPrice:    req.UnitPrice,
		SaleAmount:   req.SaleAmount,
		Deduction:    req.Deduction,
	})
}

func (s *appService) RecordProcessedShipment(ctx context.Context, actor core.Actor, req ProcessedShipmentRequest) (*core.ProcessedShipment, error) {
	return s.movements.RecordProcessedShipment(ctx, actor, core.ProcessedShipmentInput{
		ShipDate:     req.ShipDate,
		CustomerName: req.CustomerName,
		Quantity:     req.Quantity,
		TotalWeight:  req.TotalWeight,
		UnitPrice:    req.UnitPrice,
		SaleAmount:   req.SaleAmount,
		Deduction:    req.Deduction,
	})
}

func (s *appService) ListSites(ctx context.Context) (*SiteListResult, error) {
	sites, err := s.movements.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	return &SiteListResult{Sites: sites}, nil
}

func (s *appService) ListIncomingBatches(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.IncomingBatch, error) {
	return s.movements.ListIncomingBatches(ctx, siteID, fromDate, toDate)
}

func (s *appService) ListMortality(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.MortalityRecord, error) {
	return s.movements.ListMortality(ctx, siteID, fromDate, toDate)
}

func (s *appService) ListLiveShipments(ctx context.Context, siteID *int64, fromDate, toDate string) ([]core.LiveShipment, error) {
	return s.movements.ListLiveShipments(ctx, siteID, fromDate, toDate)
}

func (s *appService) ListProcessedShipments(ctx context.Context, fromDate, toDate string) ([]core.ProcessedShipment, error) {
	return s.movements.ListProcessedShipments(ctx, fromDate, toDate)
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) DailyStockReport(ctx context.Context, siteID *int64, date string) (*core.DailyStockReport, error) {
	return s.stock.DailyReport(ctx, siteID, date)
}

func (s *appService) MonthlyStockReport(ctx context.Context, siteID *int64, year, month int) (*core.MonthlyStockReport, error) {
	return s.stock.MonthlyReport(ctx, siteID, year, month)
}

func (s *appService) DailyCashStatement(ctx context.Context, date string) (*core.DailyCashStatement, error) {
	return s.cashflow.DailyCashStatement(ctx, date)
}

func (s *appService) MortalityLossValue(ctx context.Context, mortalityID int64) (*MortalityLossResult, error) {
	value, err := s.cashflow.MortalityLossValue(ctx, mortalityID)
	if err != nil {
		return nil, err
	}
	return &MortalityLossResult{MortalityID: mortalityID, LossValue: value}, nil
}
