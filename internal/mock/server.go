// Package mock serves an in-memory twin of the token, Audit, user and product
// endpoints so the suite can run without the real services.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sadopc/apiprobe/internal/telemetry"
)

// DefaultSubscriptionKey is accepted by the token endpoint unless overridden.
const DefaultSubscriptionKey = "testkey0FCB54C0C834488F315E30000"

// InsufficientPermissionsToken is recognised but lacks read access.
const InsufficientPermissionsToken = "insufficient_permissions_token"

// Server is the mock service.
type Server struct {
	store           *Store
	port            int
	latency         time.Duration
	errorRate       float64
	corsOrigin      string
	subscriptionKey string
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listening port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithLatency delays every response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithErrorRate fails the given fraction of requests with 500. Clamped to [0, 1].
func WithErrorRate(rate float64) Option {
	return func(s *Server) {
		s.errorRate = min(max(rate, 0), 1)
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// WithSubscriptionKey sets the key the token endpoint accepts.
func WithSubscriptionKey(key string) Option {
	return func(s *Server) { s.subscriptionKey = key }
}

// WithLogger logs requests through l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore serves st instead of a freshly seeded store.
func WithStore(st *Store) Option {
	return func(s *Server) { s.store = st }
}

// New creates a mock server.
func New(opts ...Option) *Server {
	s := &Server{
		port:            8080,
		corsOrigin:      "*",
		subscriptionKey: DefaultSubscriptionKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewStore()
	}
	if s.logger == nil {
		s.logger = telemetry.Discard()
	}
	return s
}

// Port returns the configured port.
func (s *Server) Port() int { return s.port }

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	r.Use(s.requestLog)
	r.Use(s.simulate)

	s.routes(r)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":            "Route not found",
			"available_routes": listRoutes(r),
		})
	})
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/gettoken", s.issueToken)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/getAuditdata", s.submitAudit)
		r.Get("/getAuditdata/audit-history", s.listHistory)
		r.Get("/getAuditdata({id})", s.getHistory)
		r.Get("/getUserdata", s.getUser)
	})

	r.Get("/products", s.listProducts)
	r.Get("/products/search", s.searchProducts)
	r.Get("/products/{id}", s.getProduct)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", s.adminReset)
		r.Post("/seed", s.adminSeed)
		r.Get("/state", s.adminState)
		r.Put("/state", s.adminLoadState)
	})
}

type route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func listRoutes(r chi.Routes) []route {
	var out []route
	_ = chi.Walk(r, func(method, path string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, route{Method: method, Path: path})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Routes lists the registered method and path pairs.
func (s *Server) Routes() []string {
	r := chi.NewRouter()
	s.routes(r)
	var out []string
	for _, rt := range listRoutes(r) {
		out = append(out, rt.Method+" "+rt.Path)
	}
	return out
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, ObjectId, Cored, Type, ocp-apim-subscription-key")
		w.Header().Set("Access-Control-Expose-Headers", "X-Page, X-Page-Size, X-Total-Count")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("mock request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			time.Sleep(s.latency)
		}
		// Admin endpoints stay reliable so test setup is deterministic.
		if s.errorRate > 0 && !strings.HasPrefix(r.URL.Path, "/admin") && rand.Float64() < s.errorRate {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Simulated server error"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
