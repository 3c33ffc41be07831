package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jpalmerr/sensorboard/internal/report"
	"github.com/jpalmerr/sensorboard/internal/store"
)

// ackResponse is returned for every accepted ingest.
type ackResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleUpdate decodes a sample and commits it to the store.
//
// The acknowledgment does not depend on whether any push client is connected.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.reject(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	sample, err := store.ParseSample(body)
	if err != nil {
		s.reject(w, http.StatusBadRequest, err.Error())
		return
	}

	s.store.Ingest(sample)
	s.writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// reject records and answers an ingest that was not committed.
func (s *Server) reject(w http.ResponseWriter, code int, msg string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IngestRejected()
	}
	s.logger.Warn("ingest rejected", "status", code, "error", msg)
	s.writeJSON(w, code, ackResponse{Status: "error", Error: msg})
}

// handleData returns the latest sample in replace mode and the full history
// in append mode.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	if s.store.Mode() == store.ModeAppend {
		s.writeJSON(w, http.StatusOK, s.store.History())
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.Latest())
}

// handleReport renders the history as a PDF attachment.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.store.Mode() != store.ModeAppend {
		http.Error(w, "report requires append mode", http.StatusNotFound)
		return
	}

	// render fully before writing headers so a failure can still be a 500
	var buf bytes.Buffer
	err := report.Render(&buf, s.store.History(), report.Options{
		Title:       s.cfg.Title,
		GeneratedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("failed to render report", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ReportRendered()
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.Filename)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write report response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// writeJSON encodes v with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
