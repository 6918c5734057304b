package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type HistoryFetcher interface {
	FetchRecent(ctx context.Context, channelID string, limit int) ([]domain.ChannelMessage, error)
}

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 200
)

type messages struct {
	fetcher HistoryFetcher
	writer  response.JSONResponseWriter
}

func NewMessages(fetcher HistoryFetcher) *messages {
	return &messages{fetcher: fetcher}
}

type messagesResponse struct {
	Messages []domain.ChannelMessage `json:"messages"`
	Count    int                     `json:"count"`
}

// Recent serves GET /channels/{channelID}/messages.
func (m *messages) Recent(w http.ResponseWriter, r *http.Request) {
	channelID := strings.TrimLeft(chi.URLParam(r, "channelID"), "#@")

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			m.writer.WriteErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	fetched, err := m.fetcher.FetchRecent(r.Context(), channelID, limit)
	if err != nil {
		m.writer.WriteErrorResponse(w, clientStatus(err), err.Error())
		return
	}
	if fetched == nil {
		fetched = []domain.ChannelMessage{}
	}

	m.writer.WriteSuccessResponse(w, messagesResponse{Messages: fetched, Count: len(fetched)})
}
