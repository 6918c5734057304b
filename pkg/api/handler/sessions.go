package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
)

type SessionClearer interface {
	Clear(sessionID string)
}

type sessions struct {
	clearer SessionClearer
	writer  response.JSONResponseWriter
}

func NewSessions(clearer SessionClearer) *sessions {
	return &sessions{clearer: clearer}
}

// Clear serves DELETE /sessions/{sessionID}.
func (s *sessions) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		s.writer.WriteErrorResponse(w, http.StatusBadRequest, "session id is required")
		return
	}

	s.clearer.Clear(sessionID)
	s.writer.WriteSuccessResponse(w, map[string]string{"status": "cleared"})
}
