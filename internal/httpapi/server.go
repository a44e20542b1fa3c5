// Package httpapi exposes the contact form over HTTP: liveness, the /send
// submission endpoint with upload staging, and optional metrics.
package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shineum/contact-mailer/internal/attachment"
	"github.com/shineum/contact-mailer/internal/pipeline"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Processor runs one submission to completion.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Result
}

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":3000").
	ListenAddr string

	// UploadDir is where uploaded files are staged. It must exist.
	UploadDir string

	// MaxUploadSize bounds the whole request body in bytes.
	MaxUploadSize int64

	// StrictStatus reports dispatch failures as 502 instead of 460.
	StrictStatus bool

	// AllowedOrigins for CORS. Empty means "*".
	AllowedOrigins []string

	// MetricsEnabled mounts the Prometheus handler at /metrics.
	MetricsEnabled bool

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config

	Pipeline Processor
	Cleaner  *attachment.Cleaner
	Logger   *slog.Logger
}

// Server serves the contact form API.
type Server struct {
	config  ServerConfig
	logger  *slog.Logger
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Cleaner == nil {
		cfg.Cleaner = attachment.NewCleaner(cfg.Logger, nil)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{config: cfg, logger: cfg.Logger}
	s.handler = s.routes()
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. On cancellation it stops accepting new connections and waits up
// to 30 seconds for in-flight requests, whose staged uploads are cleaned by
// the pipeline as usual.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.logger.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
		"strict_status", s.config.StrictStatus,
		"metrics_enabled", s.config.MetricsEnabled,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown timeout reached, forcing close", "error", err)
			return srv.Close()
		}
		s.logger.Info("all requests completed")
		return nil
	})

	return g.Wait()
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
