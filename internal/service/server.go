package service

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Server mounts every Connect service on a chi router.
type Server struct {
	store          storage.Store
	users          auth.UserStorage
	jwtManager     *auth.JWTManager
	reconciler     *reconcile.Reconciler
	currency       money.Currency
	logger         *slog.Logger
	metricsEnabled bool
}

// NewServer creates a server. users is usually the same SQLite store as store.
func NewServer(store storage.Store, users auth.UserStorage, jwtManager *auth.JWTManager, reconciler *reconcile.Reconciler, currency money.Currency) *Server {
	return &Server{
		store:      store,
		users:      users,
		jwtManager: jwtManager,
		reconciler: reconciler,
		currency:   currency,
		logger:     slog.Default(),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Interceptors run outermost first: metrics see every call, logging sees the user.
	protected := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.RequireAuth(s.jwtManager),
		middleware.LoggingInterceptor(),
	)
	public := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.OptionalAuth(s.jwtManager),
		middleware.LoggingInterceptor(),
	)

	authenticator := auth.NewPasswordAuthenticator(s.users)
	s.mount(r)(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, s.users, s.jwtManager, s.logger), public))
	s.mount(r)(apiconnect.NewDirectoryServiceHandler(NewDirectoryService(s.store), protected))
	s.mount(r)(apiconnect.NewExpenseServiceHandler(NewExpenseService(s.store, s.reconciler, s.currency), protected))
	s.mount(r)(apiconnect.NewSettlementServiceHandler(NewSettlementService(s.store, s.currency), protected))

	return r
}

// mount returns a func taking the (path, handler) pair generated handlers return.
func (s *Server) mount(r chi.Router) func(string, http.Handler) {
	return func(path string, h http.Handler) {
		r.Mount(path, h)
		s.logger.Debug("Service mounted", "path", path)
	}
}
