// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the contact mailer.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// defaultMaxUploadSize is 25 MB in bytes.
	defaultMaxUploadSize = 26214400

	defaultDispatchTimeout = 30 * time.Second
	defaultSMTPPort        = 587
)

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider"`
	HTTP     HTTPConfig    `yaml:"http"`
	Upload   UploadConfig  `yaml:"upload"`
	Mail     MailConfig    `yaml:"mail"`
	SES      SESConfig     `yaml:"ses"`
	Graph    GraphConfig   `yaml:"graph"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	TLS      TLSConfig     `yaml:"tls"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// HTTPConfig holds the HTTP listener configuration.
type HTTPConfig struct {
	Listen         string   `yaml:"listen"`
	StrictStatus   bool     `yaml:"strict_status"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// UploadConfig controls where form uploads are staged.
type UploadConfig struct {
	Dir     string `yaml:"dir"`
	MaxSize int64  `yaml:"max_size"`
}

// MailConfig holds the fixed addresses of every contact message.
type MailConfig struct {
	Sender          string        `yaml:"sender"`
	Recipient       string        `yaml:"recipient"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// SESConfig holds AWS SES configuration. Empty keys fall back to the default
// AWS credential chain.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// SMTPConfig holds the outbound SMTP relay configuration.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TLSConfig holds TLS certificate file paths.
type TLSConfig struct {
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	SelfSigned bool   `yaml:"self_signed"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first; it never overrides
// variables that are already set.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Validate reports configuration that would make every submission fail.
func (c *Config) Validate() error {
	var errs []error
	if c.Mail.Sender == "" {
		errs = append(errs, errors.New("mail sender is required (MAIL_SENDER or EMAIL)"))
	}
	if c.Mail.Recipient == "" {
		errs = append(errs, errors.New("mail recipient is required (MAIL_RECIPIENT or EMAIL)"))
	}
	if c.Upload.Dir == "" {
		errs = append(errs, errors.New("upload directory must not be empty"))
	}
	if c.Upload.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("upload max size must be positive, got %d", c.Upload.MaxSize))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// SESConfigured returns true if an SES region is set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// GraphConfigured returns true if all three Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != ""
}

// SMTPConfigured returns true if an SMTP relay host is set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != ""
}

// TLSEnabled returns true if the HTTP listener should serve TLS.
func (c *Config) TLSEnabled() bool {
	return c.TLS.SelfSigned || (c.TLS.CertFile != "" && c.TLS.KeyFile != "")
}

// loadDotEnv reads .env if present. A missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":3000"
	c.HTTP.AllowedOrigins = []string{"*"}
	c.Upload.Dir = "./uploads"
	c.Upload.MaxSize = defaultMaxUploadSize
	c.Mail.DispatchTimeout = defaultDispatchTimeout
	c.SMTP.Port = defaultSMTPPort
	c.Logging.Level = "info"
	c.Metrics.Enabled = true
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v, ok := envBool("HTTP_STRICT_STATUS"); ok {
		c.HTTP.StrictStatus = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Upload.Dir = v
	}
	if v := os.Getenv("UPLOAD_MAX_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Upload.MaxSize = size
		}
	}

	// EMAIL is both sender and recipient unless the specific ones are set.
	if v := os.Getenv("EMAIL"); v != "" {
		c.Mail.Sender = v
		c.Mail.Recipient = v
	}
	if v := os.Getenv("MAIL_SENDER"); v != "" {
		c.Mail.Sender = v
	}
	if v := os.Getenv("MAIL_RECIPIENT"); v != "" {
		c.Mail.Recipient = v
	}
	if v := os.Getenv("DISPATCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Mail.DispatchTimeout = d
		}
	}

	if v := firstEnv("SES_REGION", "REGION"); v != "" {
		c.SES.Region = v
	}
	if v := firstEnv("SES_ACCESS_KEY_ID", "KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := firstEnv("SES_SECRET_ACCESS_KEY", "ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		c.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		c.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_SECRET"); v != "" {
		c.Graph.ClientSecret = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}
	if v, ok := envBool("TLS_SELF_SIGNED"); ok {
		c.TLS.SelfSigned = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if v, ok := envBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// envBool parses a boolean env var. Unset or unparsable values report ok=false.
func envBool(key string) (value, ok bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
