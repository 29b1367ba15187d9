package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(ctx, "encoding response", "error", err)
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	s.writeJSON(ctx, w, status, errorResponse{Error: msg})
}

// internalError logs err and hides it from the client.
func (s *Server) internalError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	s.log.Error(ctx, op, "error", err)
	s.writeError(ctx, w, http.StatusInternalServerError, "internal server error")
}
