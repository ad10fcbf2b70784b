package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/h2non/filetype"
)

// StatusFor maps engine errors to HTTP status codes. Only caller mistakes
// surface as 4xx; everything else is a server error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrAnimationConfig):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, op string, tokenID int, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "token_id", tokenID, "err", err)
	} else {
		s.logger.Debug(op+" rejected", "token_id", tokenID, "status", status, "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); err != nil {
		s.logger.Warn("error response encode failed", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "err", err)
	}
}

// writeImage sends a render with the content type sniffed from its bytes.
func (s *Server) writeImage(w http.ResponseWriter, data []byte) {
	contentType := "application/octet-stream"
	if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("image write failed", "err", err)
	}
}
