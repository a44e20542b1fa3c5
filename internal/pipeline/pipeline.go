// Package pipeline runs one contact-form submission from formatting to
// dispatch, removing the staged upload on every path.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/shineum/contact-mailer/internal/attachment"
	"github.com/shineum/contact-mailer/internal/contact"
	"github.com/shineum/contact-mailer/internal/dispatch"
	"github.com/shineum/contact-mailer/internal/metrics"
)

// Result is the terminal outcome of a pipeline run.
type Result int

const (
	// ResultSent means the provider accepted the message.
	ResultSent Result = iota
	// ResultUnsupportedMedia means the attachment extension was rejected and
	// nothing was sent.
	ResultUnsupportedMedia
	// ResultSendFailed means the provider returned an error.
	ResultSendFailed
)

func (r Result) String() string {
	switch r {
	case ResultSent:
		return "ok"
	case ResultUnsupportedMedia:
		return "unsupported media type"
	case ResultSendFailed:
		return "send failed"
	default:
		return "unknown"
	}
}

// Request is one parsed submission. Attachment is nil when no file was sent;
// otherwise the pipeline owns the staged file from here on.
type Request struct {
	Submission contact.Submission
	Attachment *attachment.Attachment
}

// Config holds the pipeline collaborators and the fixed addresses.
type Config struct {
	Sender     string
	Recipient  string
	Guard      *attachment.Guard
	Cleaner    *attachment.Cleaner
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger
}

// Pipeline is stateless between runs and safe for concurrent use.
type Pipeline struct {
	sender     string
	recipient  string
	guard      *attachment.Guard
	cleaner    *attachment.Cleaner
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sender:     cfg.Sender,
		recipient:  cfg.Recipient,
		guard:      cfg.Guard,
		cleaner:    cfg.Cleaner,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
	}
}

// Process formats, guards and dispatches req. The staged attachment is
// removed exactly once: by the guard on rejection, or here after dispatch
// whatever its outcome.
func (p *Pipeline) Process(ctx context.Context, req Request) Result {
	result := p.process(ctx, req)
	metrics.RecordSubmission(result.String())
	return result
}

func (p *Pipeline) process(ctx context.Context, req Request) Result {
	msg := req.Submission.Message(p.sender, p.recipient)

	// A rejected attachment has already been removed by the guard.
	if err := p.guard.Check(req.Attachment); err != nil {
		p.logger.WarnContext(ctx, "rejected submission attachment", "error", err)
		return ResultUnsupportedMedia
	}

	if req.Attachment != nil {
		msg.Attachments = append(msg.Attachments, req.Attachment.Email())
	}

	out := p.dispatcher.Dispatch(ctx, msg)
	p.cleaner.Remove(req.Attachment)

	if !out.OK() {
		return ResultSendFailed
	}
	return ResultSent
}
