package api

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"medivault/m/domain"
	"medivault/m/internal/expiry"
	"medivault/m/internal/store"
)

func (h *Handler) medicineDetail(w http.ResponseWriter, r *http.Request) {
	medicineID, ok := urlID(r, "medicineID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	med, err := h.store.GetMedicine(r.Context(), medicineID)
	if err != nil {
		h.serverError(w, "unable to load medicine", err)
		return
	}
	if med == nil {
		h.redirect(w, r, "/", "Medicine not found", "danger")
		return
	}
	batches, err := h.store.ListBatchesForMedicine(r.Context(), medicineID)
	if err != nil {
		h.serverError(w, "unable to load batches", err)
		return
	}
	h.render(w, r, "medicine", med.Name, map[string]any{
		"Medicine": med,
		"Batches":  expiry.BatchViews(batches, h.store.Today()),
	})
}

func (h *Handler) editMedicineForm(w http.ResponseWriter, r *http.Request) {
	medicineID, ok := urlID(r, "medicineID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	med, err := h.store.GetMedicine(r.Context(), medicineID)
	if err != nil {
		h.serverError(w, "unable to load medicine", err)
		return
	}
	if med == nil {
		h.redirect(w, r, "/", "Medicine not found", "danger")
		return
	}
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, "unable to list categories", err)
		return
	}
	h.render(w, r, "edit_medicine", "Edit "+med.Name, map[string]any{
		"Medicine":   med,
		"Categories": categories,
	})
}

// editMedicine applies a partial update: blank name and category leave the stored values alone.
func (h *Handler) editMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID, ok := urlID(r, "medicineID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/", "Invalid form submission.", "danger")
		return
	}

	var patch domain.MedicinePatch
	patch.Name = nullIfEmpty(r.PostFormValue("name"))
	patch.CategoryID = parseOptionalID(r.PostFormValue("category"))
	if vals, ok := r.PostForm["description"]; ok && len(vals) > 0 {
		desc := vals[0]
		patch.Description = &desc
	}

	detail := "/medicines/" + strconv.FormatInt(medicineID, 10)
	err := h.store.UpdateMedicine(r.Context(), medicineID, patch)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/", "Medicine not found", "danger")
		return
	}
	if err != nil {
		h.log.Error("unable to update medicine", zap.Int64("medicine_id", medicineID), zap.Error(err))
		h.redirect(w, r, detail, "Unable to update medicine.", "danger")
		return
	}
	h.redirect(w, r, detail, "Medicine updated", "success")
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	medicineID, ok := urlID(r, "medicineID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.store.DeleteMedicine(r.Context(), medicineID)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/", "Medicine not found", "danger")
		return
	}
	if err != nil {
		h.log.Error("unable to delete medicine", zap.Int64("medicine_id", medicineID), zap.Error(err))
		h.redirect(w, r, "/", "Unable to delete medicine.", "danger")
		return
	}
	h.redirect(w, r, "/", "Medicine deleted with its batches.", "warning")
}
