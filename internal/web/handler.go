package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/index"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/internal/runner"
	"github.com/thoth/thoth/internal/shell"
)

const writeWait = 10 * time.Second

// Searcher ranks the catalog for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Runnable, error)
	All(ctx context.Context) ([]models.Runnable, error)
	Matcher() string
}

// Launcher starts an item by path.
type Launcher interface {
	Run(ctx context.Context, path string) (*runner.Result, error)
}

// Catalog is the refreshable application index.
type Catalog interface {
	Refresh(ctx context.Context) (int, error)
	Stats() index.Stats
}

// Reports builds launch history reports.
type Reports interface {
	GenerateReport(periodType string) (*models.Report, error)
}

// Shell is the launcher window the front-end renders.
type Shell interface {
	State() shell.State
	Show() shell.State
	Hide() shell.State
	Toggle() shell.State
	CloseRequested() shell.State
	SetQuery(q string) shell.State
	Subscribe() (<-chan shell.State, func())
}

// Deps are the collaborators behind the routes. Reports may be nil when
// history is disabled.
type Deps struct {
	Search  Searcher
	Runner  Launcher
	Window  Shell
	Catalog Catalog
	Reports Reports
}

type Handler struct {
	config   *config.Config
	deps     Deps
	started  time.Time
	origins  map[string]bool
	upgrader websocket.Upgrader

	done     chan struct{}
	doneOnce sync.Once
}

func NewHandler(cfg *config.Config, deps Deps) *Handler {
	h := &Handler{
		config:  cfg,
		deps:    deps,
		started: time.Now(),
		origins: map[string]bool{
			cfg.BaseURL(): true,
			fmt.Sprintf("http://localhost:%d", cfg.Web.Port): true,
			fmt.Sprintf("http://127.0.0.1:%d", cfg.Web.Port): true,
		},
		done: make(chan struct{}),
	}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		return h.allowedOrigin(r.Header.Get("Origin"))
	}
	return h
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/search", h.guard(h.handleSearch))
	mux.HandleFunc("/api/run", h.guard(h.handleRun))
	mux.HandleFunc("/api/window", h.guard(h.handleWindow))
	mux.HandleFunc("/api/window/show", h.guard(h.windowAction(Shell.Show)))
	mux.HandleFunc("/api/window/hide", h.guard(h.windowAction(Shell.Hide)))
	mux.HandleFunc("/api/window/toggle", h.guard(h.windowAction(Shell.Toggle)))
	mux.HandleFunc("/api/window/close", h.guard(h.windowAction(Shell.CloseRequested)))
	mux.HandleFunc("/api/window/events", h.handleWindowEvents)
	mux.HandleFunc("/api/apps", h.guard(h.handleApps))
	mux.HandleFunc("/api/apps/refresh", h.guard(h.handleRefresh))
	mux.HandleFunc("/api/history", h.guard(h.handleHistory))
	mux.HandleFunc("/api/status", h.guard(h.handleStatus))

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

// Routes returns a mux with every route registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.SetupRoutes(mux)
	return mux
}

type searchRequest struct {
	SearchInput string `json:"search_input"`
}

type runRequest struct {
	Path string `json:"path"`
}

// RunResponse is the reply to /api/run.
type RunResponse struct {
	OK     bool   `json:"ok"`
	RunID  string `json:"run_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Method string `json:"method,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {

	var query string
	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("q")
	case http.MethodPost:
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		query = req.SearchInput
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.deps.Window != nil {
		h.deps.Window.SetQuery(query)
	}

	results, err := h.deps.Search.Search(r.Context(), query)
	if err != nil {
		http.Error(w, fmt.Sprintf("Search failed: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, results)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	// only paths handed out by search or apps may be started
	if req.Path != "" {
		known, err := h.cataloged(r.Context(), req.Path)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list applications: %v", err), http.StatusInternalServerError)
			return
		}
		if !known {
			log.Warn("Refused to run unknown path", "path", req.Path)
			http.Error(w, "Unknown application", http.StatusForbidden)
			return
		}
	}

	res, err := h.deps.Runner.Run(r.Context(), req.Path)

	resp := RunResponse{OK: err == nil}
	if res != nil {
		resp.RunID = res.RunID
		resp.Name = res.Name
		resp.Method = res.Method
	}
	if err != nil {
		resp.Error = err.Error()
	}

	// the launcher clears and hides itself after every run attempt
	if h.deps.Window != nil && !errors.Is(err, runner.ErrEmptyPath) {
		h.deps.Window.SetQuery("")
		h.deps.Window.Hide()
	}

	respondJSON(w, resp)
}

func (h *Handler) cataloged(ctx context.Context, path string) (bool, error) {
	apps, err := h.deps.Search.All(ctx)
	if err != nil {
		return false, err
	}
	for _, app := range apps {
		if app.Exec == path {
			return true, nil
		}
	}
	return false, nil
}

func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, h.deps.Window.State())
}

func (h *Handler) windowAction(action func(Shell) shell.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		respondJSON(w, action(h.deps.Window))
	}
}

func (h *Handler) handleWindowEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	states, cancel := h.deps.Window.Subscribe()
	defer cancel()

	// the client never sends anything; reading surfaces its close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state, ok := <-states:
			if !ok {
				writeClose(conn)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(state); err != nil {
				log.Debug("Websocket write failed", "err", err)
				return
			}
		case <-gone:
			return
		case <-h.done:
			writeClose(conn)
			return
		}
	}
}

func writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// closeStreams ends every open window event stream.
func (h *Handler) closeStreams() {
	h.doneOnce.Do(func() { close(h.done) })
}

func (h *Handler) handleApps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	apps, err := h.deps.Search.All(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list applications: %v", err), http.StatusInternalServerError)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && len(apps) > l {
			apps = apps[:l]
		}
	}

	respondJSON(w, apps)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.deps.Catalog == nil {
		http.Error(w, "Index not available", http.StatusServiceUnavailable)
		return
	}

	if _, err := h.deps.Catalog.Refresh(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Refresh failed: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, h.deps.Catalog.Stats())
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.deps.Reports == nil {
		http.Error(w, "History is disabled", http.StatusServiceUnavailable)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	report, err := h.deps.Reports.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusBadRequest)
		return
	}

	respondJSON(w, report)
}

// Status is the reply to /api/status.
type Status struct {
	Running  bool         `json:"running"`
	PID      int          `json:"pid"`
	Uptime   string       `json:"uptime"`
	Matcher  string       `json:"matcher"`
	Address  string       `json:"address"`
	History  bool         `json:"history"`
	Database string       `json:"database_path,omitempty"`
	Window   shell.State  `json:"window"`
	Index    *index.Stats `json:"index,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := Status{
		Running:  true,
		PID:      pid(),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Matcher:  h.deps.Search.Matcher(),
		Address:  h.config.Address(),
		History:  h.deps.Reports != nil,
		Database: h.config.Database.Path,
	}
	if h.deps.Window != nil {
		status.Window = h.deps.Window.State()
	}
	if h.deps.Catalog != nil {
		stats := h.deps.Catalog.Stats()
		status.Index = &stats
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

// guard rejects browser requests from other origins, answers preflights
// and requires JSON bodies on POST.
func (h *Handler) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !h.allowedOrigin(origin) {
			log.Warn("Rejected cross-origin request", "origin", origin, "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if origin != "" {
			setCORS(w.Header(), origin)
		}

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodPost:
			if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next(w, r)
	}
}

// allowedOrigin accepts requests without an Origin (the CLI) and the
// daemon's own page.
func (h *Handler) allowedOrigin(origin string) bool {
	return origin == "" || h.origins[origin]
}

func setCORS(header http.Header, origin string) {
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Add("Vary", "Origin")
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Error encoding JSON", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
