package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medivault/m/domain"
	"medivault/m/internal/expiry"
	"medivault/m/internal/export"
	"medivault/m/internal/store"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Dashboard(r.Context())
	if err != nil {
		h.serverError(w, "unable to load dashboard", err)
		return
	}
	h.render(w, r, "dashboard", "Dashboard", d)
}

// logs lists activity, optionally filtered by table and action. limit=all lists everything.
func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table := strings.TrimSpace(q.Get("table"))
	action := strings.ToUpper(strings.TrimSpace(q.Get("action")))

	var (
		entries []domain.ActivityLogEntry
		err     error
	)
	switch {
	case table != "":
		entries, err = h.store.LogsByTable(r.Context(), table)
		if err == nil && action != "" {
			entries = filterAction(entries, action)
		}
	case action != "":
		entries, err = h.store.LogsByAction(r.Context(), action)
	default:
		entries, err = h.store.ListLogs(r.Context(), logLimit(q.Get("limit")))
	}
	if err != nil {
		h.serverError(w, "unable to load activity log", err)
		return
	}
	h.render(w, r, "logs", "Activity", map[string]any{"Logs": entries})
}

func filterAction(entries []domain.ActivityLogEntry, action string) []domain.ActivityLogEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func logLimit(val string) int {
	if strings.EqualFold(val, "all") {
		return store.NoLimit
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return store.DefaultLogLimit
	}
	return n
}

// days parses the expiry window parameter. Missing, malformed, negative or out-of-range values
// fall back to the default window.
func days(val string) int {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || n < 0 || n > store.MaxWindowDays {
		return store.DefaultSoonDays
	}
	return n
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	window := days(r.URL.Query().Get("days"))
	soon, err := h.store.SoonToExpire(r.Context(), window)
	if err != nil {
		h.serverError(w, "unable to load expiring batches", err)
		return
	}
	expired, err := h.store.Expired(r.Context())
	if err != nil {
		h.serverError(w, "unable to load expired batches", err)
		return
	}
	h.render(w, r, "expiring", "Expiring", map[string]any{
		"Days":    window,
		"Soon":    soon,
		"Expired": expired,
	})
}

func (h *Handler) upcoming(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Upcoming(r.Context(), days(r.URL.Query().Get("days")))
	if err != nil {
		h.serverError(w, "unable to load upcoming batches", err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Overview(r.Context(), "")
	if err != nil {
		h.serverError(w, "unable to load overview", err)
		return
	}
	logs, err := h.store.ListLogs(r.Context(), store.NoLimit)
	if err != nil {
		h.serverError(w, "unable to load activity log", err)
		return
	}

	buf := &bytes.Buffer{}
	if err := export.WriteInventory(buf, expiry.BuildCards(rows, h.store.Today()), logs); err != nil {
		h.serverError(w, "unable to build workbook", err)
		return
	}

	fileName := "medivault_" + time.Now().Format("20060102_150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	_, _ = buf.WriteTo(w)
}
