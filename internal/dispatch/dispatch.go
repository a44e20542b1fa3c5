// Package dispatch hands composed messages to the configured provider and
// reports a single outcome per send.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shineum/contact-mailer/internal/email"
	"github.com/shineum/contact-mailer/internal/metrics"
	"github.com/shineum/contact-mailer/internal/provider"
)

// ErrSendFailed wraps every provider failure surfaced in an Outcome.
var ErrSendFailed = errors.New("send failed")

// Outcome is the result of one dispatch: either sent with the provider's
// response, or failed with an error. The zero value is not meaningful.
type Outcome struct {
	response string
	err      error
}

// Sent returns a successful outcome.
func Sent(response string) Outcome {
	return Outcome{response: response}
}

// Failed returns a failed outcome wrapping err in ErrSendFailed.
func Failed(err error) Outcome {
	return Outcome{err: fmt.Errorf("%w: %w", ErrSendFailed, err)}
}

// OK reports whether the message was sent.
func (o Outcome) OK() bool { return o.err == nil }

// Response is the provider response of a sent outcome.
func (o Outcome) Response() string { return o.response }

// Err is the failure of a failed outcome, nil otherwise.
func (o Outcome) Err() error { return o.err }

// Dispatcher sends messages through one provider. It is safe for concurrent
// use as long as the provider is.
type Dispatcher struct {
	provider provider.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// New returns a Dispatcher. A zero timeout leaves the caller's context
// deadline, if any, as the only bound.
func New(p provider.Provider, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{provider: p, timeout: timeout, logger: logger}
}

// Dispatch sends msg once. It never retries and never panics: a provider
// panic is reported as a failed outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *email.Email) (out Outcome) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	name := d.provider.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Errorf("provider %s panicked: %v", name, r))
		}

		result := "sent"
		if !out.OK() {
			result = "failed"
			d.logger.ErrorContext(ctx, "email dispatch failed",
				"provider", name,
				"error", out.Err(),
			)
		} else {
			d.logger.InfoContext(ctx, "sent email",
				"provider", name,
				"response", out.Response(),
			)
		}
		metrics.RecordDispatch(name, result, time.Since(start))
	}()

	resp, err := d.provider.Send(ctx, msg)
	if err != nil {
		return Failed(err)
	}
	return Sent(resp)
}
