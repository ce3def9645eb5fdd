package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	webAdapter "livestock-ops/internal/adapters/web"
	"livestock-ops/internal/app"
	"livestock-ops/internal/core"
	"livestock-ops/internal/db"
	"livestock-ops/internal/logger"
)

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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	allocator := core.NewDocumentAllocator()
	receivables := core.NewReceivableService(pool, allocator)
	movements := core.NewMovementService(pool)
	stock := core.NewStockService(pool)
	cashflow := core.NewCashflowService(pool)
	customers := core.NewCustomerService(pool)
	users := core.NewUserService(pool)

	svc := app.NewAppService(receivables, movements, stock, cashflow, customers, users)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, logger.Named(log, "web"))

	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
