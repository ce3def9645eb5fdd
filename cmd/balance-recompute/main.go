package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"livestock-ops/internal/core"
	"livestock-ops/internal/db"
	"livestock-ops/internal/logger"
)

// Maintenance sweep: re-derives every finalized sale's cached totals from its
// payment records. On a consistent ledger this is a no-op; after manual data
// surgery it heals any drift between the cached columns and the payment rows.
func main() {
	_ = godotenv.Load()

	log := logger.Must(logger.New())
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT id FROM sales ORDER BY id")
	if err != nil {
		log.Fatal("failed to list sales", zap.Error(err))
	}
	var saleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			log.Fatal("failed to scan sale id", zap.Error(err))
		}
		saleIDs = append(saleIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Fatal("sale id iteration error", zap.Error(err))
	}

	allocator := core.NewDocumentAllocator()
	receivables := core.NewReceivableService(pool, allocator)
	actor := core.Actor{Name: "balance-recompute", Role: core.RoleAdmin}

	failed := 0
	for _, id := range saleIDs {
		if _, err := receivables.RecomputeBalance(ctx, actor, id); err != nil {
			log.Error("recompute failed", zap.Int64("sale_id", id), zap.Error(err))
			failed++
		}
	}

	log.Info("recompute sweep finished",
		zap.Int("sales", len(saleIDs)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		os.Exit(1)
	}
}
