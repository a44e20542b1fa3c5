package attachment

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func stage(t *testing.T, name string) *Attachment {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
	return &Attachment{FileName: name, StoragePath: path}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"resume.pdf", true},
		{"resume.PDF", true},
		{"letter.doc", true},
		{"letter.DocX", true},
		{"notes.rtf", true},
		{"notes.txt", true},
		{"/uploads/3f1c.txt", true},
		{"archive.tar.pdf", true},
		{"virus.exe", false},
		{"image.png", false},
		{"README", false},
		{"trailingdot.", false},
		{"pdf", false},
		{"resume.pdf.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := Allowed(tt.path); got != tt.want {
				t.Errorf("Allowed(%q): got %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGuard_NilAttachmentPasses(t *testing.T) {
	t.Parallel()

	var removed atomic.Int32
	g := NewGuard(NewCleaner(discardLogger(), func(string) error {
		removed.Add(1)
		return nil
	}))

	if err := g.Check(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Load() != 0 {
		t.Errorf("remove calls: got %d, want 0", removed.Load())
	}
}

func TestGuard_AllowedKeepsFile(t *testing.T) {
	t.Parallel()

	att := stage(t, "resume.PDF")
	g := NewGuard(NewCleaner(discardLogger(), nil))

	if err := g.Check(att); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists(att.StoragePath) {
		t.Error("allowed attachment must not be removed by the guard")
	}
}

func TestGuard_RejectedRemovesFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"virus.exe", "noext", "photo.jpeg"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			att := stage(t, name)
			var removed atomic.Int32
			g := NewGuard(NewCleaner(discardLogger(), func(p string) error {
				removed.Add(1)
				return os.Remove(p)
			}))

			err := g.Check(att)
			if !errors.Is(err, ErrUnsupportedType) {
				t.Fatalf("expected ErrUnsupportedType, got %v", err)
			}
			if exists(att.StoragePath) {
				t.Error("rejected attachment should be removed")
			}
			if removed.Load() != 1 {
				t.Errorf("remove calls: got %d, want 1", removed.Load())
			}
		})
	}
}

func TestCleaner_NilIsNoop(t *testing.T) {
	t.Parallel()

	var removed atomic.Int32
	c := NewCleaner(discardLogger(), func(string) error {
		removed.Add(1)
		return nil
	})

	c.Remove(nil)
	if removed.Load() != 0 {
		t.Errorf("remove calls: got %d, want 0", removed.Load())
	}
}

func TestCleaner_RemovesFile(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	att := stage(t, "resume.pdf")
	c := NewCleaner(slog.New(slog.NewTextHandler(&logs, nil)), nil)

	c.Remove(att)

	if exists(att.StoragePath) {
		t.Error("file should be removed")
	}
	if !strings.Contains(logs.String(), "uploaded file was deleted") {
		t.Errorf("expected deletion log, got %q", logs.String())
	}
}

func TestCleaner_FailureIsLoggedNotEscalated(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	c := NewCleaner(slog.New(slog.NewTextHandler(&logs, nil)), nil)

	// Removing a file that is already gone fails inside os.Remove.
	c.Remove(&Attachment{FileName: "gone.pdf", StoragePath: filepath.Join(t.TempDir(), "gone.pdf")})

	if !strings.Contains(logs.String(), "failed to delete uploaded file") {
		t.Errorf("expected failure log, got %q", logs.String())
	}
}

func TestAttachmentEmail(t *testing.T) {
	t.Parallel()

	att := &Attachment{FileName: "resume.pdf", StoragePath: "/tmp/x.pdf", ContentType: "application/pdf"}
	got := att.Email()

	if got.Filename != "resume.pdf" || got.Path != "/tmp/x.pdf" || got.ContentType != "application/pdf" {
		t.Errorf("Email(): got %+v", got)
	}
}
