package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

func TestFormatReversesToOldestFirst(t *testing.T) {
	formatter := NewContextFormatter(&fakeResolver{names: map[string]string{"U1": "Alice", "U2": "Bob"}}, 8000)

	// Newest-first, as fetched.
	messages := []domain.ChannelMessage{
		{AuthorID: "U1", Text: "see you", Timestamp: 3},
		{AuthorID: "U2", Text: "bye", Timestamp: 2},
		{AuthorID: "U1", Text: "hello", Timestamp: 1},
	}

	got := formatter.Format(context.Background(), messages)
	want := "Alice: hello\nBob: bye\nAlice: see you"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatFallsBackToAuthorID(t *testing.T) {
	formatter := NewContextFormatter(&fakeResolver{names: map[string]string{"U1": "Alice"}}, 8000)

	messages := []domain.ChannelMessage{
		{AuthorID: "U9", Text: "who am I", Timestamp: 2},
		{AuthorID: "U1", Text: "hi", Timestamp: 1},
	}

	got := formatter.Format(context.Background(), messages)
	want := "Alice: hi\nU9: who am I"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTruncatesOldestFirst(t *testing.T) {
	budget := 80
	formatter := NewContextFormatter(&fakeResolver{}, budget)

	var messages []domain.ChannelMessage
	for i := 10; i > 0; i-- {
		messages = append(messages, domain.ChannelMessage{
			AuthorID:  "U1",
			Text:      strings.Repeat("x", 20),
			Timestamp: float64(i),
		})
	}

	got := formatter.Format(context.Background(), messages)

	if len(got) > budget {
		t.Errorf("expected output within budget %d, got %d", budget, len(got))
	}
	if !strings.HasPrefix(got, truncationMarker) {
		t.Errorf("expected truncation marker, got %q", got)
	}
	// The newest message must survive truncation.
	if !strings.HasSuffix(got, "U1: "+strings.Repeat("x", 20)) {
		t.Errorf("expected most recent message retained, got %q", got)
	}
}

func TestFormatBudgetSmallerThanMarker(t *testing.T) {
	budget := 10
	formatter := NewContextFormatter(&fakeResolver{}, budget)

	got := formatter.Format(context.Background(), []domain.ChannelMessage{
		{AuthorID: "U1", Text: strings.Repeat("x", 100), Timestamp: 1},
	})

	if len(got) > budget {
		t.Errorf("expected output within budget %d, got %d (%q)", budget, len(got), got)
	}
}

func TestFormatNoTruncationWithinBudget(t *testing.T) {
	formatter := NewContextFormatter(&fakeResolver{}, 8000)

	got := formatter.Format(context.Background(), []domain.ChannelMessage{
		{AuthorID: "U1", Text: "short", Timestamp: 1},
	})

	if strings.Contains(got, truncationMarker) {
		t.Errorf("expected no truncation marker, got %q", got)
	}
}
