package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/store"
)

const (
	// pushWriteTimeout is the maximum time allowed for a single push write.
	// Must be <= shutdown timeout to ensure clean shutdown.
	pushWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// maxBodySize caps /update request bodies.
	maxBodySize = 1 << 20

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SensorBoard"
)

// dashboard placeholders replaced at render time
const (
	titlePlaceholder  = "{{.Title}}"
	modePlaceholder   = "{{.Mode}}"
	pushPlaceholder   = "{{.Push}}"
	reportPlaceholder = "{{.Report}}"
)

// Config holds the settings for a [Server].
type Config struct {
	// Port is the local TCP port to listen on. Zero picks a free port.
	Port int

	// Title is shown in the dashboard. Defaults to "SensorBoard".
	Title string

	// Push enables the /ws and /api/sse routes.
	Push bool

	// Report enables /download-pdf. Only meaningful in append mode.
	Report bool

	// Assets contains assets/index.html and the dashboard scripts.
	// When nil, "/" and "/static/" are not served.
	Assets fs.FS

	// Metrics receives ingest and report counters and backs /metrics.
	// When nil, /metrics is not served.
	Metrics *metrics.Metrics

	// Logger for server events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server handles HTTP requests for the SensorBoard dashboard and API.
type Server struct {
	store      store.Store
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// NewServer creates a new HTTP [Server] backed by st.
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		store:  st,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are as open as the CORS policy
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// Handler returns the routed handler wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/update", s.handleUpdate).Methods(http.MethodPost)
	r.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.cfg.Report {
		r.HandleFunc("/download-pdf", s.handleReport).Methods(http.MethodGet)
	}

	if s.cfg.Push {
		r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
		r.HandleFunc("/api/sse", s.handleSSE).Methods(http.MethodGet)
	}

	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	if s.cfg.Assets != nil {
		r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
		if static, err := fs.Sub(s.cfg.Assets, "assets"); err == nil {
			r.PathPrefix("/static/").
				Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))).
				Methods(http.MethodGet)
		}
	}

	return cors.AllowAll().Handler(r)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server keeps running until ctx is cancelled, then shuts
// down gracefully with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// request contexts derive from ctx, so push handlers stop on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.serve(ln, "local")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Serve accepts connections on an additional listener, such as a public
// tunnel. It must be called after [Server.Start]; the listener is closed on
// shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.httpServer == nil {
		return errors.New("server not started")
	}
	s.serve(ln, "extra")
	return nil
}

// Addr returns the local listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serve(ln net.Listener, name string) {
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "listener", name, "error", err)
		}
	}()
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}

	// title is escaped to prevent XSS; the other values are fixed tokens
	rendered := strings.NewReplacer(
		titlePlaceholder, html.EscapeString(title),
		modePlaceholder, string(s.store.Mode()),
		pushPlaceholder, strconv.FormatBool(s.cfg.Push),
		reportPlaceholder, strconv.FormatBool(s.cfg.Report && s.store.Mode() == store.ModeAppend),
	).Replace(string(content))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}
