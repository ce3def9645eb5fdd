package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"livestock-ops/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *zap.Logger) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Customers
		r.Get("/api/customers", h.listCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Put("/api/customers/{id}", h.updateCustomer)
		r.Delete("/api/customers/{id}", h.deleteCustomer)

		// Sales / receivables
		r.Get("/api/sales", h.listSales)
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/finalize", h.finalizeSale)
		r.Post("/api/sales/{id}/payments", h.applyPayment)
		r.Get("/api/sales/{id}/payments", h.listPayments)
		r.Get("/api/sales/{id}/audit-log", h.listAuditLog)
		r.Post("/api/sales/{id}/recompute", h.recomputeBalance)
		r.Get("/api/receivables", h.listReceivables)

		// Movements
		r.Get("/api/sites", h.listSites)
		r.Get("/api/incoming-batches", h.listIncomingBatches)
		r.Post("/api/incoming-batches", h.recordIncomingBatch)
		r.Get("/api/mortality", h.listMortality)
		r.Post("/api/mortality", h.recordMortality)
		r.Get("/api/mortality/{id}/loss-value", h.mortalityLossValue)
		r.Get("/api/live-shipments", h.listLiveShipments)
		r.Post("/api/live-shipments", h.recordLiveShipment)
		r.Get("/api/processed-shipments", h.listProcessedShipments)
		r.Post("/api/processed-shipments", h.recordProcessedShipment)

		// Reports
		r.Get("/api/reports/stock/daily", h.dailyStockReport)
		r.Get("/api/reports/stock/monthly", h.monthlyStockReport)
		r.Get("/api/reports/cash/daily", h.dailyCashStatement)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts the {id} URL parameter as int64. Writes a 400 response and
// returns false on malformed input.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// optInt64Query returns the named query parameter as *int64, nil when absent.
// Writes a 400 response and returns ok=false on malformed input.
func optInt64Query(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, "invalid "+name+" "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &v, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
