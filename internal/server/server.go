package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"voicereminder/internal/model"
	"voicereminder/internal/service"
)

// maxImageBytes bounds how much of an uploaded image is read into memory.
const maxImageBytes = 10 << 20

// Detector returns object labels for an uploaded image.
type Detector interface {
	Detect(ctx context.Context, imageBytes []byte) ([]string, error)
}

// Alerter dispatches the emergency alert over an external channel.
type Alerter interface {
	Configured() bool
	SendAlert(body string) error
}

// Server is the HTTP surface. It maps requests onto the reminder service
// and the detection adapter and owns no business rules of its own.
type Server struct {
	service       *service.Service
	detector      Detector
	alerts        Alerter
	voiceFile     string
	detectTimeout time.Duration
	logger        *log.Logger
}

// New creates the HTTP surface over the given collaborators.
func New(svc *service.Service, detector Detector, alerts Alerter, voiceFile string, detectTimeout time.Duration, logger *log.Logger) *Server {
	return &Server{
		service:       svc,
		detector:      detector,
		alerts:        alerts,
		voiceFile:     voiceFile,
		detectTimeout: detectTimeout,
		logger:        logger,
	}
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /set_reminder", s.handleSetReminder)
	mux.HandleFunc("GET /voice", s.handleVoice)
	mux.HandleFunc("GET /alert", s.handleAlert)
	mux.HandleFunc("POST /detect", s.handleDetect)

	return cors.AllowAll().Handler(s.withRequestLog(mux))
}

type setReminderRequest struct {
	Note  string `json:"note"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Daily bool   `json:"daily"`
}

func (s *Server) handleSetReminder(w http.ResponseWriter, r *http.Request) {
	var req setReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	id, err := s.service.Create(req.Note, req.Date, req.Time, req.Daily)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidTimeFormat):
		s.writeError(w, http.StatusBadRequest, "Invalid time format")
		return
	case errors.Is(err, model.ErrMissingDate):
		s.writeError(w, http.StatusBadRequest, "Date is required for one-time reminder")
		return
	case errors.Is(err, model.ErrInvalidDateTimeFormat):
		s.writeError(w, http.StatusBadRequest, "Invalid date/time format")
		return
	case errors.Is(err, model.ErrDuplicateReminder):
		s.writeError(w, http.StatusConflict, "A reminder already exists at that date and time")
		return
	default:
		s.logger.Printf("server: set_reminder: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Could not schedule reminder")
		return
	}

	message := "One-time reminder scheduled."
	if req.Daily {
		message = "Daily reminder scheduled."
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"id":      id,
	})
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	audio, err := os.ReadFile(s.voiceFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Printf("server: voice: %v", err)
		}
		s.writeError(w, http.StatusNotFound, "Voice file not generated yet.")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		s.logger.Printf("server: voice: write: %v", err)
	}
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	if s.alerts != nil && s.alerts.Configured() {
		// Fire-and-forget; the HTTP contract does not depend on delivery.
		go func() {
			if err := s.alerts.SendAlert("Emergency alert from voice reminder backend"); err != nil {
				s.logger.Printf("server: alert dispatch: %v", err)
			}
		}()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"alert": "Emergency alert sent"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil || len(imageBytes) == 0 {
		s.writeError(w, http.StatusBadRequest, "No image provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.detectTimeout)
	defer cancel()

	labels, err := s.detector.Detect(ctx, imageBytes)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrImageDecode):
		s.writeError(w, http.StatusBadRequest, "Could not decode image")
		return
	case errors.Is(err, model.ErrNoImage):
		s.writeError(w, http.StatusBadRequest, "No image provided")
		return
	default:
		s.logger.Printf("server: detect: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Detection failed")
		return
	}

	if labels == nil {
		labels = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"objects": labels})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("server: response encode: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// withRequestLog tags each request with an id and logs method, path,
// status, and duration.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Printf("http: %s %s %s -> %d (%s)",
			requestID, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
