// Package contact holds the contact-form submission and its rendering into
// an outbound message.
package contact

import (
	"github.com/shineum/contact-mailer/internal/email"
)

// subjectPrefix marks every contact-form message in the operator's inbox.
const subjectPrefix = "CONTACT FORM: "

// Submission is one contact-form post. Fields are taken as sent; none are
// required and none are validated.
type Submission struct {
	Name    string
	Email   string
	Title   string
	Content string
}

// Subject returns the message subject line.
func Subject(s Submission) string {
	return subjectPrefix + s.Title
}

// Body returns the plain-text message body. Field values are interpolated
// verbatim, embedded newlines included.
func Body(s Submission) string {
	return "From: " + s.Name + "\nEmail: " + s.Email + "\nMessage:\n\n" + s.Content
}

// Message builds the outbound message from sender to the single recipient.
// The attachment, if any, is added by the caller after it passes the guard.
func (s Submission) Message(from, to string) *email.Email {
	return &email.Email{
		From:     from,
		To:       []string{to},
		Subject:  Subject(s),
		TextBody: Body(s),
	}
}
