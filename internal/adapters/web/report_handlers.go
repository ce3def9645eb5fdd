package web

import (
	"net/http"
	"strconv"
	"time"
)

// dateQuery returns the "date" query parameter, defaulting to today.
func dateQuery(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return time.Now().Format("2006-01-02")
}

func (h *Handler) dailyStockReport(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optInt64Query(w, r, "site_id")
	if !ok {
		return
	}

	report, err := h.svc.DailyStockReport(r.Context(), siteID, dateQuery(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) monthlyStockReport(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optInt64Query(w, r, "site_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, r, "invalid year "+strconv.Quote(q.Get("year")), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, r, "invalid month "+strconv.Quote(q.Get("month")), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	report, err := h.svc.MonthlyStockReport(r.Context(), siteID, year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) dailyCashStatement(w http.ResponseWriter, r *http.Request) {
	stmt, err := h.svc.DailyCashStatement(r.Context(), dateQuery(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, stmt)
}

func (h *Handler) mortalityLossValue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	result, err := h.svc.MortalityLossValue(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
