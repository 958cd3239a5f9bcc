package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medivault/m/internal/metrics"
	"medivault/m/internal/store"
	"medivault/m/internal/views"
)

// Options configures the optional parts of the HTTP surface.
type Options struct {
	Secret string
	// OperatorPasswordHash is a bcrypt hash. Empty leaves mutating routes open.
	OperatorPasswordHash string
	CORSAllowedOrigins   []string
	// Metrics enables request instrumentation and /metrics when set.
	Metrics *metrics.Metrics
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	views   *views.Renderer
	log     *zap.Logger
	opts    Options
	metrics *metrics.Metrics
}

// New constructs a Handler.
func New(st *store.Store, renderer *views.Renderer, log *zap.Logger, opts Options) *Handler {
	return &Handler{store: st, views: renderer, log: log, opts: opts, metrics: opts.Metrics}
}

// Router wires up the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.health)
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Get("/", h.home)
	r.Get("/add", h.addMedicineForm)
	r.Get("/edit_batch/{batchID}", h.editBatchForm)
	r.Get("/medicines/{medicineID}", h.medicineDetail)
	r.Get("/edit_medicine/{medicineID}", h.editMedicineForm)
	r.Get("/categories", h.listCategories)
	r.Get("/dashboard", h.dashboard)
	r.Get("/logs", h.logs)
	r.Get("/expiring", h.expiring)
	r.Get("/export.xlsx", h.exportWorkbook)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
		r.Get("/upcoming", h.upcoming)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireOperator)

		pr.Post("/add", h.addMedicine)
		pr.Post("/add_batch/{medicineID}", h.addBatch)
		pr.Post("/delete_batch/{batchID}", h.deleteBatch)
		pr.Post("/edit_batch/{batchID}", h.editBatch)
		pr.Post("/edit_medicine/{medicineID}", h.editMedicine)
		pr.Post("/delete_medicine/{medicineID}", h.deleteMedicine)

		pr.Post("/categories", h.createCategory)
		pr.Post("/categories/{categoryID}/rename", h.renameCategory)
		pr.Post("/categories/{categoryID}/delete", h.deleteCategory)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// render writes a page. The notice of a preceding redirect is read from the query string.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	q := r.URL.Query()
	page := views.Page{
		Title:       title,
		Notice:      q.Get("notice"),
		Level:       noticeLevel(q.Get("level")),
		AuthEnabled: h.authEnabled(),
		LoggedIn:    h.loggedIn(r),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.Render(w, name, page); err != nil {
		h.log.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirect sends the browser to target carrying a one-line notice.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target, notice, level string) {
	if notice != "" {
		v := url.Values{}
		v.Set("notice", notice)
		v.Set("level", level)
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + v.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func noticeLevel(level string) string {
	switch level {
	case "success", "warning", "danger":
		return level
	}
	return ""
}

// Helpers
func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseQuantity coerces form input to an integer; empty or malformed text is zero.
func parseQuantity(val string) int64 {
	q, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0
	}
	return q
}

// parseOptionalID returns nil for empty or non-numeric ids.
func parseOptionalID(val string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func urlID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
