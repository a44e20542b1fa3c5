// Package email defines the outbound message model handed to delivery providers.
package email

import (
	"fmt"
	"os"
)

// Email is a composed outbound message. It is built fresh for every request
// and never persisted.
type Email struct {
	From        string
	To          []string
	Subject     string
	TextBody    string
	Attachments []Attachment
}

// Attachment references an uploaded file staged on local disk. Providers
// read the content lazily so the pipeline never holds the file in memory
// longer than a single send.
type Attachment struct {
	Filename    string
	Path        string
	ContentType string
}

// Content reads the staged file.
func (a Attachment) Content() ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %q: %w", a.Filename, err)
	}
	return data, nil
}

// MediaType returns the attachment's content type, defaulting to
// application/octet-stream when detection produced nothing.
func (a Attachment) MediaType() string {
	if a.ContentType == "" {
		return "application/octet-stream"
	}
	return a.ContentType
}
