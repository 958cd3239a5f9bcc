package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medivault/m/domain"
	"medivault/m/internal/expiry"
	"medivault/m/internal/store"
)

type homeData struct {
	Medicines   []expiry.MedicineCard
	Stats       domain.HeadlineStats
	SearchQuery string
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	stats, err := h.store.HeadlineStats(r.Context())
	if err != nil {
		h.serverError(w, "unable to load headline stats", err)
		return
	}
	rows, err := h.store.Overview(r.Context(), query)
	if err != nil {
		h.serverError(w, "unable to load overview", err)
		return
	}

	h.render(w, r, "index", "Inventory", homeData{
		Medicines:   expiry.BuildCards(rows, h.store.Today()),
		Stats:       stats,
		SearchQuery: query,
	})
}

func (h *Handler) addMedicineForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, "unable to list categories", err)
		return
	}
	h.render(w, r, "add_medicine", "Add medicine", map[string]any{"Categories": categories})
}

// batchForm reads batch fields from a submitted form. supplied reports whether any of them
// carried a value.
func batchForm(r *http.Request) (nb store.NewBatch, supplied bool) {
	batchNo := r.PostFormValue("batch_no")
	quantity := r.PostFormValue("quantity")
	expiryDate := r.PostFormValue("expiry")
	supplied = strings.TrimSpace(batchNo) != "" || strings.TrimSpace(quantity) != "" || strings.TrimSpace(expiryDate) != ""
	return store.NewBatch{
		BatchNo:    nullIfEmpty(batchNo),
		Quantity:   parseQuantity(quantity),
		ExpiryDate: nullIfEmpty(expiryDate),
	}, supplied
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/add", "Invalid form submission.", "danger")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		h.redirect(w, r, "/add", "Medicine name is required.", "danger")
		return
	}

	var initial *store.NewBatch
	if nb, supplied := batchForm(r); supplied {
		initial = &nb
	}

	_, err := h.store.CreateMedicineWithBatch(r.Context(), name,
		parseOptionalID(r.PostFormValue("category")), r.PostFormValue("description"), initial)
	if err != nil {
		h.log.Error("unable to add medicine", zap.String("name", name), zap.Error(err))
		h.redirect(w, r, "/add", "Unable to add medicine.", "danger")
		return
	}
	h.redirect(w, r, "/", "Medicine added successfully!", "success")
}

func (h *Handler) addBatch(w http.ResponseWriter, r *http.Request) {
	medicineID, ok := urlID(r, "medicineID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/", "Invalid form submission.", "danger")
		return
	}
	nb, _ := batchForm(r)
	if _, err := h.store.CreateBatch(r.Context(), medicineID, nb); err != nil {
		h.log.Error("unable to add batch", zap.Int64("medicine_id", medicineID), zap.Error(err))
		h.redirect(w, r, "/", "Unable to add batch.", "danger")
		return
	}
	h.redirect(w, r, "/", "Batch added.", "success")
}

func (h *Handler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	batchID, ok := urlID(r, "batchID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.store.DeleteBatch(r.Context(), batchID)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/", "Batch not found", "danger")
		return
	}
	if err != nil {
		h.log.Error("unable to delete batch", zap.Int64("batch_id", batchID), zap.Error(err))
		h.redirect(w, r, "/", "Unable to delete batch.", "danger")
		return
	}
	h.redirect(w, r, "/", "Batch deleted.", "warning")
}

func (h *Handler) editBatchForm(w http.ResponseWriter, r *http.Request) {
	batchID, ok := urlID(r, "batchID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	batch, err := h.store.GetBatch(r.Context(), batchID)
	if err != nil {
		h.serverError(w, "unable to load batch", err)
		return
	}
	if batch == nil {
		h.redirect(w, r, "/", "Batch not found", "danger")
		return
	}
	h.render(w, r, "edit_batch", "Edit batch", map[string]any{"Batch": batch})
}

func (h *Handler) editBatch(w http.ResponseWriter, r *http.Request) {
	batchID, ok := urlID(r, "batchID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/", "Invalid form submission.", "danger")
		return
	}
	nb, _ := batchForm(r)
	err := h.store.UpdateBatch(r.Context(), batchID, nb)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/", "Batch not found", "danger")
		return
	}
	if err != nil {
		h.log.Error("unable to update batch", zap.Int64("batch_id", batchID), zap.Error(err))
		h.redirect(w, r, "/", "Unable to update batch.", "danger")
		return
	}
	h.redirect(w, r, "/", "Batch updated", "success")
}
