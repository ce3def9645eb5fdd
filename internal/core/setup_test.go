package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"livestock-ops/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean and seed test DB
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE balance_audit_logs, payment_records, sale_items, sales,
			sale_number_sequences, processed_shipments, live_shipments,
			mortality_records, incoming_batches, customers, users, sites
			RESTART IDENTITY CASCADE;

		INSERT INTO sites (id, name) VALUES (1, 'Kandang A'), (2, 'Kandang B');
		SELECT setval('sites_id_seq', 2);

		INSERT INTO customers (id, name, phone, address) VALUES (1, 'Test Customer', '', '');
		SELECT setval('customers_id_seq', 1);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// adminActor is the default caller for mutating operations in tests.
func adminActor() core.Actor {
	return core.Actor{Name: "test-admin", Role: core.RoleAdmin}
}

func staffActor() core.Actor {
	return core.Actor{Name: "test-staff", Role: core.RoleStaff}
}
