// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/shineum/contact-mailer/internal/email"
)

// Provider prints email messages in a human-readable format. It is the
// fallback when no real transport is configured.
type Provider struct {
	mu     sync.Mutex
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the email message. Attachment sizes are taken from the staged
// files; an attachment that cannot be stat'ed is listed as "unreadable".
func (p *Provider) Send(_ context.Context, msg *email.Email) (string, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.TextBody + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			size := "unreadable"
			if info, err := os.Stat(att.Path); err == nil {
				size = formatSize(info.Size())
			}
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.Filename, size))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(attachments, ", "))
	}

	b.WriteString("========================================\n")

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}

	return "printed", nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
