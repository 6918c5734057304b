package handler

import (
	"net/http"
	"time"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
)

type health struct {
	writer response.JSONResponseWriter
}

func NewHealth() *health {
	return &health{}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (h *health) Check(w http.ResponseWriter, r *http.Request) {
	h.writer.WriteSuccessResponse(w, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
