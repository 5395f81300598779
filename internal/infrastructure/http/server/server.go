package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_fiscal_receipts/internal/infrastructure/config"
	httpx "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/http/middleware"
)

// InvoiceFetchPath is where clients submit invoice verification URLs.
const InvoiceFetchPath = "/api/v1/invoices/fetch"

// Server owns the HTTP listener and the router.
type Server struct {
	log        *slog.Logger
	cfg        config.HTTPSettings
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options wires handlers into the router.
type Options struct {
	Config         config.AppConfig
	Logger         *slog.Logger
	HealthHandler  http.Handler
	InvoiceHandler http.Handler // serves every verb on InvoiceFetchPath
}

// New builds the router: request id, real ip, request logging and panic
// recovery on every route; CORS, authentication and the ingestion deadline
// on the API routes.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "Not found", nil, opts.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"}, opts.Logger)
	})

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	if opts.InvoiceHandler != nil {
		r.Group(func(api chi.Router) {
			api.Use(middleware.CORS(opts.Config.HTTP.AllowedOrigin))
			api.Use(auth.Middleware)
			api.Use(middleware.Deadline(opts.Config.HTTP.IngestTimeout))
			api.Handle(InvoiceFetchPath, opts.InvoiceHandler)
		})
	}

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{
		log:        opts.Logger,
		cfg:        opts.Config.HTTP,
		httpServer: srv,
		auth:       auth,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.log.Info("http server shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background key refresh.
func (s *Server) Close() {
	s.auth.Close()
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
