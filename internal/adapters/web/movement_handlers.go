package web

import (
	"net/http"

	"livestock-ops/internal/app"
)

func (h *Handler) recordIncomingBatch(w http.ResponseWriter, r *http.Request) {
	var req app.IncomingBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	batch, err := h.svc.RecordIncomingBatch(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, batch)
}

func (h *Handler) recordMortality(w http.ResponseWriter, r *http.Request) {
	var req app.MortalityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.svc.RecordMortality(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, record)
}

func (h *Handler) recordLiveShipment(w http.ResponseWriter, r *http.Request) {
	var req app.LiveShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.svc.RecordLiveShipment(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, shipment)
}

func (h *Handler) recordProcessedShipment(w http.ResponseWriter, r *http.Request) {
	var req app.ProcessedShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.svc.RecordProcessedShipment(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, shipment)
}

func (h *Handler) listSites(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSites(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listIncomingBatches(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optInt64Query(w, r, "site_id")
	if !ok {
		return
	}
	q := r.URL.Query()

	batches, err := h.svc.ListIncomingBatches(r.Context(), siteID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, batches)
}

func (h *Handler) listMortality(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optInt64Query(w, r, "site_id")
	if !ok {
		return
	}
	q := r.URL.Query()

	records, err := h.svc.ListMortality(r.Context(), siteID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, records)
}

func (h *Handler) listLiveShipments(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optInt64Query(w, r, "site_id")
	if !ok {
		return
	}
	q := r.URL.Query()

	shipments, err := h.svc.ListLiveShipments(r.Context(), siteID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, shipments)
}

func (h *Handler) listProcessedShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	shipments, err := h.svc.ListProcessedShipments(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, shipments)
}
