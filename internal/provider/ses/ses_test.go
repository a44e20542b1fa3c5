package ses

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/contact-mailer/internal/email"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

// writeAttachment stages a file in a per-test directory.
func writeAttachment(t *testing.T, name, content string) email.Attachment {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write attachment: %v", err)
	}
	return email.Attachment{Filename: name, Path: path, ContentType: "application/pdf"}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient("sender@example.com", &mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_SimpleTextEmail(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := &email.Email{
		From:     "sender@example.com",
		To:       []string{"ops@example.com"},
		Subject:  "CONTACT FORM: Hi",
		TextBody: "From: Jo\nEmail: jo@x.com\nMessage:\n\nHello",
	}

	resp, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "test-message-id" {
		t.Errorf("response: got %q, want %q", resp, "test-message-id")
	}

	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}

	input := mock.lastInput
	if input.Content.Simple == nil {
		t.Fatal("expected simple email content, got nil")
	}
	if got := *input.FromEmailAddress; got != "sender@example.com" {
		t.Errorf("FromEmailAddress: got %q, want %q", got, "sender@example.com")
	}
	if got := *input.Content.Simple.Subject.Data; got != "CONTACT FORM: Hi" {
		t.Errorf("Subject: got %q, want %q", got, "CONTACT FORM: Hi")
	}
	if got := *input.Content.Simple.Body.Text.Data; got != msg.TextBody {
		t.Errorf("TextBody: got %q, want %q", got, msg.TextBody)
	}
	if input.Content.Simple.Body.Html != nil {
		t.Error("expected no HTML body")
	}
	if got := input.Destination.ToAddresses; len(got) != 1 || got[0] != "ops@example.com" {
		t.Errorf("ToAddresses: got %v, want [ops@example.com]", got)
	}
}

func TestSend_WithAttachment(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := &email.Email{
		From:        "sender@example.com",
		To:          []string{"ops@example.com"},
		Subject:     "With Attachment",
		TextBody:    "See attachment",
		Attachments: []email.Attachment{writeAttachment(t, "resume.pdf", "file content")},
	}

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := mock.lastInput
	if input.Content.Raw == nil {
		t.Fatal("expected raw email content for attachment, got nil")
	}
	if input.Content.Simple != nil {
		t.Error("expected no simple content when using raw message")
	}

	rawStr := string(input.Content.Raw.Data)
	for _, want := range []string{
		"From: sender@example.com",
		"To: ops@example.com",
		"Subject: With Attachment",
		"multipart/mixed",
		"text/plain",
		"resume.pdf",
	} {
		if !strings.Contains(rawStr, want) {
			t.Errorf("raw message missing %q", want)
		}
	}
}

func TestSend_AttachmentMissing(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := &email.Email{
		To:       []string{"ops@example.com"},
		Subject:  "Gone",
		TextBody: "Body",
		Attachments: []email.Attachment{
			{Filename: "gone.pdf", Path: filepath.Join(t.TempDir(), "gone.pdf")},
		},
	}

	if _, err := p.Send(context.Background(), msg); err == nil {
		t.Fatal("expected error for unreadable attachment")
	}
	if mock.callCount != 0 {
		t.Errorf("call count: got %d, want 0", mock.callCount)
	}
}

func TestSend_ErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	p := NewWithClient("sender@example.com", mock)

	_, err := p.Send(context.Background(), &email.Email{
		To:       []string{"ops@example.com"},
		Subject:  "Fail Test",
		TextBody: "Hello",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "throttled") {
		t.Errorf("error message: got %q, want to contain %q", err.Error(), "throttled")
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}
}
