// Package main is the entry point for the contact mailer HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/contact-mailer/internal/attachment"
	"github.com/shineum/contact-mailer/internal/config"
	"github.com/shineum/contact-mailer/internal/dispatch"
	"github.com/shineum/contact-mailer/internal/httpapi"
	"github.com/shineum/contact-mailer/internal/pipeline"
	"github.com/shineum/contact-mailer/internal/provider"
	"github.com/shineum/contact-mailer/internal/provider/graph"
	"github.com/shineum/contact-mailer/internal/provider/ses"
	"github.com/shineum/contact-mailer/internal/provider/smtp"
	"github.com/shineum/contact-mailer/internal/provider/stdout"
	mailertls "github.com/shineum/contact-mailer/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("contact-mailer failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tlsConfig, err := mailertls.Load(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.SelfSigned)
	if err != nil {
		return fmt.Errorf("failed to setup TLS: %w", err)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		return err
	}

	logger := slog.Default()
	cleaner := attachment.NewCleaner(logger, nil)
	p := pipeline.New(pipeline.Config{
		Sender:     cfg.Mail.Sender,
		Recipient:  cfg.Mail.Recipient,
		Guard:      attachment.NewGuard(cleaner),
		Cleaner:    cleaner,
		Dispatcher: dispatch.New(prov, cfg.Mail.DispatchTimeout, logger),
		Logger:     logger,
	})

	server := httpapi.New(httpapi.ServerConfig{
		ListenAddr:     cfg.HTTP.Listen,
		UploadDir:      cfg.Upload.Dir,
		MaxUploadSize:  cfg.Upload.MaxSize,
		StrictStatus:   cfg.HTTP.StrictStatus,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		TLSConfig:      tlsConfig,
		Pipeline:       p,
		Cleaner:        cleaner,
		Logger:         logger,
	})

	slog.Info("starting contact-mailer",
		"listen", cfg.HTTP.Listen,
		"provider", prov.Name(),
		"upload_dir", cfg.Upload.Dir,
		"tls_mode", mailertls.Mode(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.SelfSigned),
	)

	// Blocks until a signal cancels ctx
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("contact-mailer stopped")
	return nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the email delivery backend. PROVIDER takes
// precedence; otherwise the first configured of graph, ses and smtp is used,
// falling back to stdout.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("ses provider selected but SES_REGION is not set")
		}
		return newSES(ctx, cfg)

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID and GRAPH_CLIENT_SECRET are required")
		}
		return newGraph(cfg), nil

	case "smtp":
		if !cfg.SMTPConfigured() {
			return nil, errors.New("smtp provider selected but SMTP_HOST is not set")
		}
		return newSMTP(cfg), nil

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "":
		switch {
		case cfg.GraphConfigured():
			return newGraph(cfg), nil
		case cfg.SESConfigured():
			return newSES(ctx, cfg)
		case cfg.SMTPConfigured():
			return newSMTP(cfg), nil
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newSES(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"sender", cfg.Mail.Sender,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.Mail.Sender,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES provider: %w", err)
	}
	return p, nil
}

func newGraph(cfg *config.Config) provider.Provider {
	slog.Info("using Microsoft Graph provider", "sender", cfg.Mail.Sender)
	return graph.New(graph.GraphProviderConfig{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Mail.Sender,
	})
}

func newSMTP(cfg *config.Config) provider.Provider {
	slog.Info("using SMTP relay provider",
		"host", cfg.SMTP.Host,
		"port", cfg.SMTP.Port,
		"auth_enabled", cfg.SMTP.Username != "",
	)
	return smtp.New(smtp.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Sender:   cfg.Mail.Sender,
	})
}
