package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type client struct {
	api     *slackapi.Client
	timeout time.Duration
}

func NewClient(token string, timeout time.Duration) (*client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	return &client{
		api:     slackapi.New(token),
		timeout: timeout,
	}, nil
}

func (c *client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// channelIDPattern matches Slack conversation IDs (C/G/D prefix plus at
// least eight uppercase alphanumerics). Anything else is treated as a name.
var channelIDPattern = regexp.MustCompile(`^[CDG][A-Z0-9]{7,}$`)

// resolveChannelID accepts either a conversation ID or a channel name.
// The history API takes IDs only, so names go through the channel list.
func (c *client) resolveChannelID(ctx context.Context, channel string) (string, error) {
	if channelIDPattern.MatchString(channel) {
		return channel, nil
	}
	channels, err := c.ListChannels(ctx)
	if err != nil {
		return "", err
	}
	if id, ok := channelIDByName(channels, channel); ok {
		return id, nil
	}
	return "", fmt.Errorf("no channel named %q: %w", channel, domain.ErrChannelNotFound)
}

func channelIDByName(channels []domain.Channel, name string) (string, bool) {
	for _, ch := range channels {
		if ch.Name == name {
			return ch.ID, true
		}
	}
	return "", false
}

// FetchRecent returns up to limit recent channel messages, newest-first as
// the Slack API delivers them. The channel may be given by ID or by name.
// Bot notices and attachments without text are skipped.
func (c *client) FetchRecent(ctx context.Context, channel string, limit int) ([]domain.ChannelMessage, error) {
	channelID, err := c.resolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}

	ctx, cancelFn := c.callCtx(ctx)
	defer cancelFn()

	resp, err := c.api.GetConversationHistoryContext(ctx, &slackapi.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, mapError(err)
	}

	messages := make([]domain.ChannelMessage, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if msg.User == "" || msg.Text == "" {
			continue
		}
		ts, err := strconv.ParseFloat(msg.Timestamp, 64)
		if err != nil {
			slog.WarnContext(ctx, "skipping message with unparsable timestamp", "ts", msg.Timestamp)
			continue
		}
		messages = append(messages, domain.ChannelMessage{
			AuthorID:  msg.User,
			Text:      msg.Text,
			Timestamp: ts,
		})
	}
	return messages, nil
}

// Post sends one message and returns its Slack ts.
func (c *client) Post(ctx context.Context, channelID, text string) (string, error) {
	ctx, cancelFn := c.callCtx(ctx)
	defer cancelFn()

	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slackapi.MsgOptionText(text, false),
		slackapi.MsgOptionDisableLinkUnfurl(),
		slackapi.MsgOptionDisableMediaUnfurl(),
	)
	if err != nil {
		return "", mapError(err)
	}
	return ts, nil
}

// ResolveUser returns a human display name for a user ID.
func (c *client) ResolveUser(ctx context.Context, userID string) (string, error) {
	ctx, cancelFn := c.callCtx(ctx)
	defer cancelFn()

	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", mapError(err)
	}
	if user.RealName != "" {
		return user.RealName, nil
	}
	return user.Name, nil
}

// ListChannels returns all public and private channels the bot can see.
func (c *client) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	ctx, cancelFn := c.callCtx(ctx)
	defer cancelFn()

	var channels []domain.Channel
	cursor := ""
	for {
		page, nextCursor, err := c.api.GetConversationsContext(ctx, &slackapi.GetConversationsParameters{
			Types:           []string{"public_channel", "private_channel"},
			ExcludeArchived: true,
			Limit:           200,
			Cursor:          cursor,
		})
		if err != nil {
			return nil, mapError(err)
		}
		for _, ch := range page {
			channels = append(channels, domain.Channel{
				ID:          ch.ID,
				Name:        ch.Name,
				IsPrivate:   ch.IsPrivate,
				MemberCount: ch.NumMembers,
			})
		}
		if nextCursor == "" {
			return channels, nil
		}
		cursor = nextCursor
	}
}

// mapError translates Slack API error strings into domain sentinel kinds.
func mapError(err error) error {
	var rateErr *slackapi.RateLimitedError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("slack api: %w", domain.ErrRateLimited)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("slack api: %w", domain.ErrTimeout)
	}

	switch err.Error() {
	case "channel_not_found", "not_in_channel", "is_archived":
		return fmt.Errorf("slack api: %s: %w", err.Error(), domain.ErrChannelNotFound)
	case "not_authed", "invalid_auth", "token_revoked", "account_inactive":
		return fmt.Errorf("slack api: %s: %w", err.Error(), domain.ErrAuth)
	case "missing_scope", "not_allowed", "restricted_action", "ekm_access_denied":
		return fmt.Errorf("slack api: %s: %w", err.Error(), domain.ErrPermission)
	case "msg_too_long", "no_text":
		return fmt.Errorf("slack api: %s: %w", err.Error(), domain.ErrPayloadTooLarge)
	case "ratelimited", "rate_limited":
		return fmt.Errorf("slack api: %s: %w", err.Error(), domain.ErrRateLimited)
	}
	return fmt.Errorf("slack api: %w", err)
}
