package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/format"
)

type MessagePoster interface {
	Post(ctx context.Context, channelID, text string) (string, error)
}

type postMessage struct {
	poster     MessagePoster
	chunkLimit int
	writer     response.JSONResponseWriter
}

func NewPostMessage(poster MessagePoster, chunkLimit int) *postMessage {
	return &postMessage{poster: poster, chunkLimit: chunkLimit}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	Channel    string   `json:"channel"`
	MessageIDs []string `json:"message_ids"`
}

// Handle serves POST /messages: a direct send to a channel, split the same
// way the pipeline splits answers.
func (p *postMessage) Handle(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.writer.WriteErrorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}

	channel := strings.TrimLeft(req.Channel, "#@")
	if channel == "" || strings.TrimSpace(req.Text) == "" {
		p.writer.WriteErrorResponse(w, http.StatusBadRequest, "channel and text are required")
		return
	}

	var messageIDs []string
	for _, chunk := range format.SplitMessage(req.Text, p.chunkLimit) {
		messageID, err := p.poster.Post(r.Context(), channel, chunk)
		if err != nil {
			p.writer.WriteErrorResponse(w, clientStatus(err), err.Error())
			return
		}
		messageIDs = append(messageIDs, messageID)
	}

	p.writer.WriteSuccessResponse(w, postMessageResponse{Channel: channel, MessageIDs: messageIDs})
}

// clientStatus maps messaging/completion client sentinel kinds onto HTTP
// status codes for the passthrough endpoints.
func clientStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrChannelNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrAuth), errors.Is(err, domain.ErrTimeout):
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}
