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
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/relay/internal/api"
	"github.com/jpalmerr/relay/internal/metrics"
)

const (
	// restTimeout bounds REST handlers. Streaming routes are not limited.
	restTimeout = 30 * time.Second

	// shutdownTimeout is how long in-flight requests get after ctx is done.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "relay"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Server handles HTTP requests for relay's API, subscriptions and playground.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	svc        *api.Service
	port       int
	httpServer *http.Server
	addr       net.Addr
	assets     fs.FS
	title      string
	logger     *slog.Logger
	metrics    *metrics.Registry
	done       chan struct{}
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics serves reg at /metrics and reports subscription connections to it.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - svc: the application service
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: embedded filesystem containing the playground (may be nil)
//   - title: playground title (defaults to "relay" if empty)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(svc *api.Service, port int, assets fs.FS, title string, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(restTimeout))

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
			r.Get("/users/{id}/messages", s.handleUserMessages)

			r.Get("/messages", s.handleListMessages)
			r.Post("/messages", s.handleCreateMessage)
			r.Get("/messages/{id}", s.handleGetMessage)
			r.Put("/messages/{id}", s.handleUpdateMessage)
			r.Delete("/messages/{id}", s.handleDeleteMessage)

			r.Get("/broker", s.handleBrokerStats)
		})

		r.Get("/sse/{topic}", s.handleSSE)
		r.Get("/ws/{topic}", s.handleWS)
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.assets != nil {
		r.Get("/", s.handlePlayground)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx, so cancelling it also ends
		// long-running subscription handlers
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Done is closed once the server has shut down after a successful
// [Server.Start].
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Addr returns the listening address, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handlePlayground serves the embedded playground page.
func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Playground not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write playground response", "error", err)
	}
}

func (s *Server) handleBrokerStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Bus().Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) connOpened(transport string) {
	if s.metrics != nil {
		s.metrics.ConnectionOpened(transport)
	}
}

func (s *Server) connClosed(transport string) {
	if s.metrics != nil {
		s.metrics.ConnectionClosed(transport)
	}
}
