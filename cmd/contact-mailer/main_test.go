package main

import (
	"context"
	"testing"

	"github.com/shineum/contact-mailer/internal/config"
)

func TestSelectProvider(t *testing.T) {
	t.Parallel()

	graphCfg := config.GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s"}
	sesCfg := config.SESConfig{Region: "us-east-1", AccessKeyID: "key", SecretAccessKey: "secret"}
	smtpCfg := config.SMTPConfig{Host: "relay.example.com", Port: 587}

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "nothing configured", cfg: config.Config{}, want: "stdout"},
		{name: "explicit stdout", cfg: config.Config{Provider: "stdout", Graph: graphCfg}, want: "stdout"},
		{name: "explicit smtp", cfg: config.Config{Provider: "smtp", SMTP: smtpCfg}, want: "smtp"},
		{name: "explicit graph", cfg: config.Config{Provider: "graph", Graph: graphCfg}, want: "msgraph"},
		{name: "explicit ses", cfg: config.Config{Provider: "ses", SES: sesCfg}, want: "ses"},
		{name: "auto graph first", cfg: config.Config{Graph: graphCfg, SES: sesCfg, SMTP: smtpCfg}, want: "msgraph"},
		{name: "auto ses before smtp", cfg: config.Config{SES: sesCfg, SMTP: smtpCfg}, want: "ses"},
		{name: "auto smtp", cfg: config.Config{SMTP: smtpCfg}, want: "smtp"},
		{name: "smtp without host", cfg: config.Config{Provider: "smtp"}, wantErr: true},
		{name: "graph incomplete", cfg: config.Config{Provider: "graph", Graph: config.GraphConfig{TenantID: "t"}}, wantErr: true},
		{name: "ses without region", cfg: config.Config{Provider: "ses"}, wantErr: true},
		{name: "unknown", cfg: config.Config{Provider: "pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.Mail.Sender = "noreply@example.com"

			p, err := selectProvider(context.Background(), &cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %q", p.Name())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("provider: got %q, want %q", p.Name(), tt.want)
			}
		})
	}
}
