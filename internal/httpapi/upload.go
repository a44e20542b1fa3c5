package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/shineum/contact-mailer/internal/attachment"
	"github.com/shineum/contact-mailer/internal/contact"
	"github.com/shineum/contact-mailer/internal/pipeline"
)

const (
	// uploadField is the multipart field holding the attached file.
	uploadField = "uploads"

	// maxFieldSize bounds a single non-file multipart field.
	maxFieldSize = 1 << 20
)

var errMissingBoundary = errors.New("multipart body without boundary")

// submissionJSON is the JSON form of a submission.
type submissionJSON struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	MessageTitle   string `json:"messageTitle"`
	MessageContent string `json:"messageContent"`
}

// readRequest decodes the submission and stages at most one upload. On error
// nothing is left staged.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "multipart/form-data":
		return s.readMultipart(r)
	case "application/json":
		var body submissionJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return pipeline.Request{}, fmt.Errorf("failed to decode JSON body: %w", err)
		}
		return pipeline.Request{Submission: contact.Submission{
			Name:    body.Name,
			Email:   body.Email,
			Title:   body.MessageTitle,
			Content: body.MessageContent,
		}}, nil
	default:
		if err := r.ParseForm(); err != nil {
			return pipeline.Request{}, fmt.Errorf("failed to parse form: %w", err)
		}
		return pipeline.Request{Submission: submissionFromValues(r.PostFormValue)}, nil
	}
}

func submissionFromValues(get func(string) string) contact.Submission {
	return contact.Submission{
		Name:    get("name"),
		Email:   get("email"),
		Title:   get("messageTitle"),
		Content: get("messageContent"),
	}
}

// readMultipart streams the body, staging the first uploads file part.
// Further file parts are drained and discarded.
func (s *Server) readMultipart(r *http.Request) (req pipeline.Request, err error) {
	mr, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrMissingBoundary) {
			return req, errMissingBoundary
		}
		return req, fmt.Errorf("failed to read multipart body: %w", err)
	}

	defer func() {
		if err != nil {
			s.config.Cleaner.Remove(req.Attachment)
			req.Attachment = nil
		}
	}()

	fields := make(map[string]string)
	for {
		part, perr := mr.NextPart()
		if errors.Is(perr, io.EOF) {
			break
		}
		if perr != nil {
			return req, fmt.Errorf("failed to read multipart part: %w", perr)
		}

		switch {
		case part.FileName() == "":
			value, rerr := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if rerr != nil {
				part.Close()
				return req, fmt.Errorf("failed to read field %q: %w", part.FormName(), rerr)
			}
			if _, ok := fields[part.FormName()]; !ok {
				fields[part.FormName()] = string(value)
			}

		case part.FormName() == uploadField && req.Attachment == nil:
			att, serr := s.stage(part)
			if serr != nil {
				part.Close()
				return req, serr
			}
			req.Attachment = att

		default:
			if _, derr := io.Copy(io.Discard, part); derr != nil {
				part.Close()
				return req, fmt.Errorf("failed to skip file part: %w", derr)
			}
		}
		part.Close()
	}

	req.Submission = submissionFromValues(func(k string) string { return fields[k] })
	return req, nil
}

// stage writes part to <UploadDir>/<uuid><ext>, keeping the client's
// extension so the attachment guard sees it.
func (s *Server) stage(part *multipart.Part) (*attachment.Attachment, error) {
	fileName := filepath.Base(part.FileName())
	path := filepath.Join(s.config.UploadDir, uuid.NewString()+filepath.Ext(fileName))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged upload: %w", err)
	}

	_, copyErr := io.Copy(f, part)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write staged upload: %w", err)
	}

	return &attachment.Attachment{
		FileName:    fileName,
		StoragePath: path,
		ContentType: detectContentType(path, part.Header.Get("Content-Type")),
	}, nil
}

// detectContentType sniffs the staged file, falling back to the type the
// client declared.
func detectContentType(path, declared string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt.Is("application/octet-stream") {
		if declared != "" {
			return declared
		}
		return "application/octet-stream"
	}
	return mt.String()
}
