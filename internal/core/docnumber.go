package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// documentPrefix is the fixed prefix for finalized sale invoice numbers.
const documentPrefix = "INV"

// PeriodKey returns the allocation scope for a transaction date: the
// prefix plus year and month, e.g. "INV-202609".
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%s-%d%02d", documentPrefix, t.Year(), int(t.Month()))
}

// DocumentAllocator hands out unique, gapless-per-period invoice numbers.
// Allocation must happen inside the same transaction as the sale update that
// consumes the number, so a rolled-back finalize never burns a number.
type DocumentAllocator interface {
	// AllocateTx returns the next document number for the period containing t,
	// formatted as PREFIX-YYYYMM-NNN. It must be called within the caller's
	// transaction.
	AllocateTx(ctx context.Context, tx pgx.Tx, t time.Time) (string, error)
}

type documentAllocator struct{}

// NewDocumentAllocator constructs the sequence-backed allocator.
func NewDocumentAllocator() DocumentAllocator {
	return &documentAllocator{}
}

// AllocateTx increments the per-period counter row and formats the number.
// The upsert's DO UPDATE takes a row lock on the sequence row, so two
// concurrent finalizes for the same period serialize here and can never
// observe the same last_number.
func (a *documentAllocator) AllocateTx(ctx context.Context, tx pgx.Tx, t time.Time) (string, error) {
	period := PeriodKey(t)

	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO sale_number_sequences (period_key, last_number)
		VALUES ($1, 1)
		ON CONFLICT (period_key)
		DO UPDATE SET last_number = sale_number_sequences.last_number + 1
		RETURNING last_number
	`, period).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence for period %s: %w", period, err)
	}

	return fmt.Sprintf("%s-%03d", period, lastNumber), nil
}
