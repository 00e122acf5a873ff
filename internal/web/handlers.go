// Package web implements the HTTP surface of kiroku: the server-rendered
// listing and posting pages, the JSON entries API, and the health and metrics
// endpoints. It also owns request validation and the listing query builder.
package web

import (
	"embed"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
	"github.com/ymatsuda/kiroku/internal/services"
	"github.com/ymatsuda/kiroku/internal/version"
	"go.uber.org/zap"
)

//go:embed templates static
var assetsFS embed.FS

// User-facing notices for storage failures. Raw error text is logged, never
// shown.
const (
	msgStoreNotInitialized = "The database is not initialized. Run the server setup to create the schema."
	msgStorageError        = "A database error occurred. Please try again."
	msgEntrySaved          = "Your diary entry has been saved!"
)

// Handler serves all kiroku HTTP endpoints.
type Handler struct {
	entries  services.EntryRepository
	sessions *sessions.CookieStore
	render   *render.Render
	logger   *zap.Logger
	dbPath   string
	routes   []string
}

// NewHandler creates the HTTP handler set. sessionSecret signs the flash
// cookie; dbPath is reported by the health endpoint.
func NewHandler(entries services.EntryRepository, sessionSecret, dbPath string, logger *zap.Logger) *Handler {
	return &Handler{
		entries:  entries,
		sessions: sessions.NewCookieStore([]byte(sessionSecret)),
		render: render.New(render.Options{
			Directory:  "templates",
			FileSystem: &render.EmbedFileSystem{FS: assetsFS},
			Extensions: []string{".html"},
			Layout:     "layout",
		}),
		logger: logger,
		dbPath: dbPath,
	}
}

// RegisterRoutes mounts all endpoints on the mux. Every application route is
// wrapped with logging/metrics instrumentation and recorded for the health
// endpoint.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	appRoutes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"GET /{$}", h.handleIndex},
		{"GET /post", h.handleNewEntry},
		{"POST /post", h.handleCreateEntry},
		{"GET /health", h.handleHealth},
		{"GET /api/v1/entries", h.handleListEntriesAPI},
	}
	for _, rt := range appRoutes {
		mux.HandleFunc(rt.pattern, h.instrument(rt.pattern, rt.fn))
		h.routes = append(h.routes, rt.pattern)
	}

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /static/", http.FileServer(http.FS(assetsFS)))
}

// indexData feeds the listing template.
type indexData struct {
	Entries    []services.Entry
	Query      ListQuery
	Pagination Pagination
	PrevURL    string
	NextURL    string
	Errors     []string
	Notices    []string
}

// postData feeds the entry form template. Date and Content carry the user's
// input back after a failed submission.
type postData struct {
	Date    string
	Content string
	Errors  []string
	Notices []string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())
	flashErrs, notices := h.popFlashes(w, r)

	entries, pg, err := loadEntryPage(r.Context(), h.entries, q)
	if err != nil {
		h.logger.Error("load entry page",
			zap.Error(err),
			zap.String("search", q.Search),
			zap.Int("page", q.Page),
		)
		// Render an empty but well-formed listing with an error notice.
		entries = []services.Entry{}
		pg = emptyPagination(q)
		flashErrs = append(flashErrs, storageNotice(err))
	}

	data := indexData{
		Entries:    entries,
		Query:      q,
		Pagination: pg,
		Errors:     flashErrs,
		Notices:    notices,
	}
	if pg.HasPrev {
		data.PrevURL = listURL(q, pg.PrevNum)
	}
	if pg.HasNext {
		data.NextURL = listURL(q, pg.NextNum)
	}

	h.renderHTML(w, "index", data)
}

func (h *Handler) handleNewEntry(w http.ResponseWriter, r *http.Request) {
	flashErrs, notices := h.popFlashes(w, r)
	h.renderHTML(w, "post", postData{Errors: flashErrs, Notices: notices})
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	form := extractEntryForm(r)
	content, errs := form.validate()
	if len(errs) > 0 {
		h.logger.Warn("entry validation failed",
			zap.Strings("errors", errs),
			zap.String("date", form.Date),
			zap.Int("content_len", len(content)),
		)
		h.renderHTML(w, "post", postData{Date: form.Date, Content: content, Errors: errs})
		return
	}

	id, err := h.entries.Create(r.Context(), form.Date, content)
	if err != nil {
		h.logger.Error("create entry",
			zap.Error(err),
			zap.Int("date_len", len(form.Date)),
			zap.Int("content_len", len(content)),
		)
		h.renderHTML(w, "post", postData{
			Date:    form.Date,
			Content: content,
			Errors:  []string{storageNotice(err)},
		})
		return
	}

	h.logger.Info("entry created", zap.Int64("id", id), zap.String("date", form.Date))
	h.flash(w, r, flashSuccess, msgEntrySaved)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleHealth reports a fixed status payload: service name, backing store,
// and the registered route patterns. It succeeds whenever the process is up.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.render.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "kiroku",
		"version": version.Map(),
		"store":   "sqlite:" + h.dbPath,
		"routes":  h.routes,
	})
}

// handleListEntriesAPI exposes the listing query builder as JSON with the
// same filter, sort, and pagination semantics as the HTML page.
func (h *Handler) handleListEntriesAPI(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r.URL.Query())

	entries, pg, err := loadEntryPage(r.Context(), h.entries, q)
	if err != nil {
		h.logger.Error("list entries api", zap.Error(err), zap.String("search", q.Search))
		if errors.Is(err, services.ErrNotInitialized) {
			writeProblem(w, http.StatusServiceUnavailable, "database schema not initialized")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "failed to list entries")
		return
	}

	resp := struct {
		services.ListResult[services.Entry]
		Pagination Pagination `json:"pagination"`
	}{
		ListResult: services.ListResult[services.Entry]{Items: entries, Total: pg.Total},
		Pagination: pg,
	}
	h.render.JSON(w, http.StatusOK, resp)
}

// renderHTML renders a template inside the shared layout. Render failures are
// logged; at that point part of the response may already be written, so no
// fallback body is attempted.
func (h *Handler) renderHTML(w http.ResponseWriter, name string, data any) {
	if err := h.render.HTML(w, http.StatusOK, name, data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

// storageNotice maps a repository error to its user-facing message.
func storageNotice(err error) string {
	if errors.Is(err, services.ErrNotInitialized) {
		return msgStoreNotInitialized
	}
	return msgStorageError
}
