package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"medivault/m/internal/store"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, "unable to list categories", err)
		return
	}
	h.render(w, r, "categories", "Categories", map[string]any{"Categories": categories})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		h.redirect(w, r, "/categories", "Category name is required.", "danger")
		return
	}
	if _, err := h.store.CreateCategory(r.Context(), name); err != nil {
		h.log.Warn("unable to create category", zap.String("name", name), zap.Error(err))
		h.redirect(w, r, "/categories", "Unable to add category (names must be unique).", "danger")
		return
	}
	h.redirect(w, r, "/categories", "Category added.", "success")
}

func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := urlID(r, "categoryID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		h.redirect(w, r, "/categories", "Category name is required.", "danger")
		return
	}
	err := h.store.RenameCategory(r.Context(), categoryID, name)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/categories", "Category not found", "danger")
		return
	}
	if err != nil {
		h.log.Warn("unable to rename category", zap.Int64("category_id", categoryID), zap.Error(err))
		h.redirect(w, r, "/categories", "Unable to rename category.", "danger")
		return
	}
	h.redirect(w, r, "/categories", "Category renamed.", "success")
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := urlID(r, "categoryID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.store.DeleteCategory(r.Context(), categoryID)
	if errors.Is(err, store.ErrNotFound) {
		h.redirect(w, r, "/categories", "Category not found", "danger")
		return
	}
	if err != nil {
		h.log.Error("unable to delete category", zap.Int64("category_id", categoryID), zap.Error(err))
		h.redirect(w, r, "/categories", "Unable to delete category.", "danger")
		return
	}
	h.redirect(w, r, "/categories", "Category deleted. Its medicines are now uncategorized.", "warning")
}
