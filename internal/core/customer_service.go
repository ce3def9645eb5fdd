package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages the mutable customer master records.
type CustomerService interface {
	CreateCustomer(ctx context.Context, actor Actor, name, phone, address string) (*Customer, error)
	UpdateCustomer(ctx context.Context, actor Actor, id int64, name, phone, address string) (*Customer, error)
	// DeleteCustomer removes a customer. It fails with InvalidStateError while
	// any of the customer's sales still carries outstanding balance.
	DeleteCustomer(ctx context.Context, actor Actor, id int64) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

// NewCustomerService constructs a CustomerService backed by PostgreSQL.
func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

func (s *customerService) CreateCustomer(ctx context.Context, actor Actor, name, phone, address string) (*Customer, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if name == "" {
		return nil, validationf("customer name is required")
	}

	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, phone, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, phone, address, created_at
	`, name, phone, address).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, actor Actor, id int64, name, phone, address string) (*Customer, error) {
	if !actor.CanMutateLedger() {
		return nil, ErrForbidden
	}
	if name == "" {
		return nil, validationf("customer name is required")
	}

	var c Customer
	err := s.pool.QueryRow(ctx, `
		UPDATE customers SET name = $1, phone = $2, address = $3
		WHERE id = $4
		RETURNING id, name, phone, address, created_at
	`, name, phone, address, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", id)
		}
		return nil, fmt.Errorf("failed to update customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, actor Actor, id int64) error {
	if !actor.CanMutateLedger() {
		return ErrForbidden
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The outstanding check and the delete run in one transaction so a payment
	// landing in between cannot leave an orphaned receivable.
	var outstandingSales int64
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM sales WHERE customer_id = $1 AND outstanding > 0
	`, id).Scan(&outstandingSales)
	if err != nil {
		return fmt.Errorf("failed to check outstanding sales for customer %d: %w", id, err)
	}
	if outstandingSales > 0 {
		return invalidStatef("customer %d has %d sales with outstanding balance", id, outstandingSales)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("customer", id)
	}

	return tx.Commit(ctx)
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, phone, address, created_at FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", id)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, address, created_at FROM customers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
