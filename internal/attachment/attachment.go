// Package attachment guards and removes uploaded files staged on local disk.
//
// A staged upload is owned by exactly one request. Whatever path that request
// takes, the file is removed once: by the Guard when the extension is
// rejected, otherwise by the caller through Cleaner.Remove after dispatch.
package attachment

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shineum/contact-mailer/internal/email"
	"github.com/shineum/contact-mailer/internal/metrics"
)

// ErrUnsupportedType is returned by Guard.Check for a disallowed extension.
var ErrUnsupportedType = errors.New("attachment type not allowed")

// allowedExtensions is matched against the lowercased extension.
var allowedExtensions = map[string]struct{}{
	".doc":  {},
	".docx": {},
	".pdf":  {},
	".rtf":  {},
	".txt":  {},
}

// Attachment is an uploaded file staged by the HTTP layer.
type Attachment struct {
	// FileName is the name the client sent.
	FileName string
	// StoragePath is where the upload was written. It keeps the client's
	// extension and is unique per request.
	StoragePath string
	// ContentType is the detected media type, used only for the MIME header.
	ContentType string
}

// Email converts the attachment into the outbound message model.
func (a *Attachment) Email() email.Attachment {
	return email.Attachment{
		Filename:    a.FileName,
		Path:        a.StoragePath,
		ContentType: a.ContentType,
	}
}

// Allowed reports whether path carries an allowed extension. The comparison
// ignores case; a path without an extension is never allowed.
func Allowed(path string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Cleaner removes staged uploads. Failures are logged and counted, never
// returned.
type Cleaner struct {
	logger *slog.Logger
	remove func(string) error
}

// NewCleaner returns a Cleaner. A nil logger uses slog.Default and a nil
// remove func uses os.Remove.
func NewCleaner(logger *slog.Logger, remove func(string) error) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if remove == nil {
		remove = os.Remove
	}
	return &Cleaner{logger: logger, remove: remove}
}

// Remove deletes the attachment's staged file. A nil attachment is a no-op.
func (c *Cleaner) Remove(att *Attachment) {
	if att == nil {
		return
	}

	if err := c.remove(att.StoragePath); err != nil {
		metrics.RecordCleanup("failed")
		c.logger.Error("failed to delete uploaded file",
			"path", att.StoragePath,
			"error", err,
		)
		return
	}

	metrics.RecordCleanup("removed")
	c.logger.Info("uploaded file was deleted", "path", att.StoragePath)
}

// Guard checks attachments against the extension allow-list.
type Guard struct {
	cleaner *Cleaner
}

// NewGuard returns a Guard that removes rejected files through cleaner.
func NewGuard(cleaner *Cleaner) *Guard {
	return &Guard{cleaner: cleaner}
}

// Check returns nil when att is nil or allowed. Otherwise it removes the
// staged file and returns ErrUnsupportedType; the caller must not remove a
// rejected attachment again.
func (g *Guard) Check(att *Attachment) error {
	if att == nil || Allowed(att.StoragePath) {
		return nil
	}

	metrics.RecordAttachmentRejected()
	g.cleaner.Remove(att)
	return fmt.Errorf("attachment %q with extension %q: %w", att.FileName, filepath.Ext(att.StoragePath), ErrUnsupportedType)
}
