package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type ChannelLister interface {
	ListChannels(ctx context.Context) ([]domain.Channel, error)
}

type channels struct {
	lister ChannelLister
	writer response.JSONResponseWriter
}

func NewChannels(lister ChannelLister) *channels {
	return &channels{lister: lister}
}

type channelsResponse struct {
	Channels []domain.Channel `json:"channels"`
}

func (c *channels) List(w http.ResponseWriter, r *http.Request) {
	all, err := c.lister.ListChannels(r.Context())
	if err != nil {
		c.writer.WriteErrorResponse(w, clientStatus(err), err.Error())
		return
	}
	c.writer.WriteSuccessResponse(w, channelsResponse{Channels: all})
}

// Search filters channels by a case-insensitive name substring. Queries
// shorter than two characters yield an empty result.
func (c *channels) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))
	if len(query) < 2 {
		c.writer.WriteSuccessResponse(w, channelsResponse{Channels: []domain.Channel{}})
		return
	}

	all, err := c.lister.ListChannels(r.Context())
	if err != nil {
		c.writer.WriteErrorResponse(w, clientStatus(err), err.Error())
		return
	}

	matched := lo.Filter(all, func(ch domain.Channel, _ int) bool {
		return strings.Contains(strings.ToLower(ch.Name), query)
	})
	c.writer.WriteSuccessResponse(w, channelsResponse{Channels: matched})
}
