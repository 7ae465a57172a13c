// Package api provides the HTTP server for ReportPipe.
//
// It exposes the report listing, map export and moderation endpoints, the
// WhatsApp pairing QR for operators and, when Twilio is the transport, the
// inbound webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/ReportPipe/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server timeouts.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// QRSource exposes the WhatsApp pairing state. *whatsapp.Client implements it.
type QRSource interface {
	LatestQR() string
	Relogin(ctx context.Context) error
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	QR             QRSource
	TwilioWebhook  http.HandlerFunc
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownWindow time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithQRSource enables the /api/wa endpoints.
func WithQRSource(src QRSource) Option {
	return func(o *Opts) { o.QR = src }
}

// WithTwilioWebhook mounts the Twilio inbound webhook.
func WithTwilioWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) { o.TwilioWebhook = h }
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownWindow = d }
}

// Server serves the ReportPipe HTTP API.
type Server struct {
	reports store.ReportStore
	cfg     Opts
	router  *chi.Mux
}

// NewServer builds the router over reports.
func NewServer(reports store.ReportStore, opts ...Option) *Server {
	cfg := Opts{
		Addr:           DefaultAddr,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		ShutdownWindow: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{reports: reports, cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewMux()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(api chi.Router) {
		api.Get("/reports", s.listReportsHandler)
		api.Get("/reports.geojson", s.geoJSONHandler)
		api.Delete("/reports/{id}", s.deleteReportHandler)

		if s.cfg.QR != nil {
			api.Get("/wa/qr", s.qrHandler)
			api.Post("/wa/relogin", s.reloginHandler)
		}
		if s.cfg.TwilioWebhook != nil {
			api.Post("/twilio/webhook", s.cfg.TwilioWebhook)
		}
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server", "reason", ctx.Err().Error())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownWindow)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
			return err
		}
		return nil
	case err := <-errChan:
		return err
	}
}
