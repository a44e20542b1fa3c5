// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/contact-mailer/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Implementations are shared by all in-flight requests and must be safe
// for concurrent use.
type Provider interface {
	// Send delivers an email message through this provider and returns the
	// provider's response (a message ID or status line) on success.
	Send(ctx context.Context, msg *email.Email) (string, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
