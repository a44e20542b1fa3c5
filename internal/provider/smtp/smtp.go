// Package smtp implements a Provider that relays emails to an SMTP server.
package smtp

import (
	"context"
	"fmt"
	"net"
	netsmtp "net/smtp"
	"strconv"

	"github.com/shineum/contact-mailer/internal/email"
)

// Config holds the relay connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// sendFunc matches net/smtp.SendMail.
type sendFunc func(addr string, a netsmtp.Auth, from string, to []string, msg []byte) error

// Provider relays messages with net/smtp. A new connection is opened per
// send, so the provider carries no connection state between requests.
type Provider struct {
	addr   string
	auth   netsmtp.Auth
	sender string
	send   sendFunc
}

// New creates a relay provider. PLAIN auth is used only when a username is set.
func New(cfg Config) *Provider {
	return newWithSender(cfg, netsmtp.SendMail)
}

func newWithSender(cfg Config, send sendFunc) *Provider {
	var auth netsmtp.Auth
	if cfg.Username != "" {
		auth = netsmtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Provider{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:   auth,
		sender: cfg.Sender,
		send:   send,
	}
}

// Send renders the message and hands it to the relay. net/smtp has no
// context support, so cancellation is observed before and after the call
// but cannot interrupt it.
func (p *Provider) Send(ctx context.Context, msg *email.Email) (string, error) {
	raw, err := msg.MIME(p.sender)
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan error, 1)
	go func() {
		done <- p.send(p.addr, p.auth, p.sender, msg.To, raw)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("smtp relay %s: %w", p.addr, ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp relay %s: %w", p.addr, err)
		}
	}

	return "250 queued by " + p.addr, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}
