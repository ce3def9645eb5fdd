package web

import (
	"net/http"

	"livestock-ops/internal/app"
)

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateSale(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) finalizeSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.FinalizeSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.FinalizeSale(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.ApplyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.ApplyPayment(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) recomputeBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.RecomputeBalance(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}

	result, err := h.svc.ListSales(r.Context(), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listReceivables(w http.ResponseWriter, r *http.Request) {
	customerID, ok := optInt64Query(w, r, "customer_id")
	if !ok {
		return
	}

	result, err := h.svc.ListReceivables(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ListAuditLog(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
