package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/logger"
)

type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (string, error)
}

const truncationMarker = "[earlier messages truncated]\n"

type contextFormatter struct {
	resolver   UserResolver
	charBudget int
}

func NewContextFormatter(resolver UserResolver, charBudget int) *contextFormatter {
	return &contextFormatter{
		resolver:   resolver,
		charBudget: charBudget,
	}
}

// Format renders channel history fetched newest-first into an oldest-first
// transcript, one "Name: text" line per message. Name resolution is best
// effort; a failed lookup falls back to the raw author ID.
func (f *contextFormatter) Format(ctx context.Context, messages []domain.ChannelMessage) string {
	lines := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		lines = append(lines, fmt.Sprintf("%s: %s", f.displayName(ctx, msg.AuthorID), msg.Text))
	}
	return f.truncate(strings.Join(lines, "\n"))
}

func (f *contextFormatter) displayName(ctx context.Context, authorID string) string {
	name, err := f.resolver.ResolveUser(ctx, authorID)
	if err != nil {
		slog.WarnContext(ctx, "resolving user, falling back to raw ID", "userID", authorID, logger.Err(err))
		return authorID
	}
	if name == "" {
		return authorID
	}
	return name
}

// truncate enforces the character budget by dropping oldest lines first,
// so the most recent context survives. A truncated transcript starts with
// the truncation marker and never exceeds the budget.
func (f *contextFormatter) truncate(text string) string {
	if f.charBudget <= 0 || len(text) <= f.charBudget {
		return text
	}

	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		kept := truncationMarker + strings.Join(lines[i:], "\n")
		if len(kept) <= f.charBudget {
			return kept
		}
	}

	// Even the newest line alone blows the budget; keep its tail.
	room := f.charBudget - len(truncationMarker)
	if room <= 0 {
		// Budget smaller than the marker itself; clip the marker too.
		return truncationMarker[:f.charBudget]
	}
	last := lines[len(lines)-1]
	for len(last) > room {
		_, size := utf8.DecodeRuneInString(last)
		last = last[size:]
	}
	return truncationMarker + last
}
