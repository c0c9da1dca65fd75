package ui

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/limiter"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler manages HTTP requests for the record API
type Handler struct {
	Logger  log.Logger
	Config  *cfg.Config
	Store   *stage.Store
	limiter *limiter.RateLimiter
	baseDir string
}

// NewHandler creates a new API handler
func NewHandler(logger log.Logger, config *cfg.Config, store *stage.Store) (*Handler, error) {
	return &Handler{
		Logger:  logger,
		Config:  config,
		Store:   store,
		limiter: limiter.NewRateLimiter(config.Api.RequestsPerSecond),
		baseDir: "internal/ui/static",
	}, nil
}

// RegisterRoutes sets up the HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Static file server for CSS, JS, etc.
	fileServer := http.FileServer(http.Dir(h.baseDir))
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))

	// Fixed resources
	mux.HandleFunc("/imdb/artists/", h.getArtists)
	mux.HandleFunc("/api/", h.getTemplateQuery)
	mux.HandleFunc("/healthz", h.getHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Home page and the generic search route share the root
	mux.HandleFunc("/", h.route)
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		h.showHomePage(w, r)
		return
	}
	h.getPrefixSearch(w, r)
}

// showHomePage renders the browse page
func (h *Handler) showHomePage(w http.ResponseWriter, r *http.Request) {
	templatePath := filepath.Join(h.baseDir, "index.html")
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to parse template: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, nil); err != nil {
		h.Logger.Error(r.Context(), "Failed to execute template: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// getHealth reports liveness and whether the database answers a ping
func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":   "ok",
		"database": "up",
	}

	dbh, err := h.Store.Mysql.Db()
	if err == nil {
		var sqlDB *sql.DB
		sqlDB, err = dbh.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
	}
	if err != nil {
		h.Logger.Error(r.Context(), "Health check failed to reach the database: %v", err)
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "down"
	}

	h.writeJSON(w, r, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]interface{}{"error": msg})
}

// pageParams reads limit and offset. A malformed value is the caller's
// mistake and must not degrade into an empty result.
func (h *Handler) pageParams(r *http.Request) (int, int, error) {
	limit := h.Config.Api.PageSizeDefault
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid limit %q", s)
		}
		limit = n
	}
	if max := h.Config.Api.PageSizeMax; max > 0 && limit > max {
		limit = max
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", s)
		}
		offset = n
	}
	return limit, offset, nil
}
