// Package httpapi exposes the pipeline over JSON HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/pipeline"
	"medscribe-go/internal/types"
)

const defaultMaxBody = 40 << 20

// Service is what the handlers call; *pipeline.Pipeline satisfies it.
type Service interface {
	Transcribe(ctx context.Context, ref types.AudioReference) (types.TranscriptionResult, error)
	Extract(ctx context.Context, text string) (types.MedicalRecord, error)
	Diagnose(ctx context.Context, rec types.MedicalRecord) (types.Diagnosis, error)
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (types.AnalysisResult, error)
}

type Server struct {
	svc     Service
	maxBody int64
}

func New(svc Service, maxBody int64) *Server {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Server{svc: svc, maxBody: maxBody}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	r.HandleFunc("/extract", s.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/diagnose", s.handleDiagnose).Methods(http.MethodPost)
	r.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	return r
}

// requestID makes sure every request, and its response, carries an id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set("X-Request-ID", id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// audioRequest is the body of /transcribe and /analyze.
type audioRequest struct {
	AudioURL    string `json:"audioUrl"`
	Data        string `json:"data"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Text        string `json:"text"`
	Diagnose    bool   `json:"diagnose"`
}

// reference returns nil when the body names no audio. A data field holding
// an http(s) link is treated as a URL.
func (a audioRequest) reference() *types.AudioReference {
	rawURL := strings.TrimSpace(a.AudioURL)
	data := strings.TrimSpace(a.Data)
	if strings.HasPrefix(strings.ToLower(data), "http") && rawURL == "" {
		rawURL, data = data, ""
	}
	switch {
	case rawURL == "" && data == "":
		return nil
	case rawURL != "" && data != "":
		// both set: let the pipeline reject it
		return &types.AudioReference{URL: rawURL, Data: data, Filename: a.Filename, ContentType: a.ContentType}
	case rawURL != "":
		ref := types.URLReference(rawURL)
		return &ref
	default:
		ref := types.InlineReference(data, a.Filename, a.ContentType)
		return &ref
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger.New().WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	log := logger.New().WithRequest(r).WithField("handler", "transcribe")
	var body audioRequest
	if !s.decode(w, r, &body) {
		return
	}
	ref := body.reference()
	if ref == nil {
		writeError(w, r, apperr.New(apperr.MissingField, "httpapi.transcribe", "audioUrl or data is required"))
		return
	}

	start := time.Now()
	res, err := s.svc.Transcribe(r.Context(), *ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).WithField("mock", res.Mock).Info("transcription served")
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body extractRequest
	if !s.decode(w, r, &body) {
		return
	}
	rec, err := s.svc.Extract(r.Context(), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var rec types.MedicalRecord
	if !s.decode(w, r, &rec) {
		return
	}
	if rec.Symptoms == nil {
		rec.Symptoms = []string{}
	}
	if strings.TrimSpace(rec.ConsultationReason) == "" {
		rec.ConsultationReason = types.DefaultConsultationReason
	}
	d, err := s.svc.Diagnose(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := logger.New().WithRequest(r).WithField("handler", "analyze")
	var body audioRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.svc.Analyze(r.Context(), pipeline.AnalyzeRequest{
		Reference: body.reference(),
		Text:      body.Text,
		Diagnose:  body.Diagnose,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.WithField("duration_ms", res.DurationMs).Info("analysis served")
	writeJSON(w, r, http.StatusOK, res)
}

// decode reads a JSON body no larger than maxBody. On failure it has
// already written the response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	const op = "httpapi.decode"
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, apperr.Newf(apperr.TextTooLong, op, "request body exceeds %d bytes", tooBig.Limit))
			return false
		}
		writeError(w, r, apperr.Wrap(apperr.MissingField, op, fmt.Errorf("invalid JSON body: %w", err)))
		return false
	}
	return true
}

// StatusFor maps an error to its HTTP status by category.
func StatusFor(err error) int {
	switch apperr.CategoryOf(err) {
	case apperr.Input:
		return http.StatusBadRequest
	case apperr.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	entry := logger.New().WithRequest(r).WithField("status", status).WithField("kind", apperr.KindOf(err).String())
	if status >= 500 {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}
	writeJSON(w, r, status, errorBody{Error: err.Error(), Kind: apperr.KindOf(err).String()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithRequest(r).WithError(err).Error("failed to write response")
	}
}
