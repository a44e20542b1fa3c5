package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shineum/contact-mailer/internal/metrics"
	"github.com/shineum/contact-mailer/internal/pipeline"
)

// StatusSendFailed is the non-standard status returned when the provider
// rejects a message and strict mode is off.
const StatusSendFailed = 460

const livenessText = "The email server is running."

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodOptions,
			http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	}))

	r.Get("/", s.liveness)
	r.Post("/send", s.send)

	if s.config.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}

func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(livenessText))
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "failed to read contact submission",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	result := s.config.Pipeline.Process(r.Context(), req)
	w.WriteHeader(statusFor(result, s.config.StrictStatus))
}

// statusFor maps a pipeline result to the response status.
func statusFor(result pipeline.Result, strict bool) int {
	switch result {
	case pipeline.ResultSent:
		return http.StatusOK
	case pipeline.ResultUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case pipeline.ResultSendFailed:
		if strict {
			return http.StatusBadGateway
		}
		return StatusSendFailed
	default:
		return http.StatusInternalServerError
	}
}
