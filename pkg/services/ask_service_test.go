package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/repository"
)

type fakeCompletionClient struct {
	result domain.CompletionResult
	err    error

	calls    int
	gotModel string
	gotTurns []domain.ConversationTurn
}

func (f *fakeCompletionClient) CreateCompletion(
	_ context.Context,
	model string,
	_ int,
	_ float64,
	turns []domain.ConversationTurn,
) (domain.CompletionResult, error) {
	f.calls++
	f.gotModel = model
	f.gotTurns = turns
	if f.err != nil {
		return domain.CompletionResult{}, f.err
	}
	return f.result, nil
}

type fakeMessagingClient struct {
	history  []domain.ChannelMessage
	fetchErr error

	fetchCalls int
	gotChannel string
	gotLimit   int

	posts       []string
	postChannel string
	failAtChunk int
	postErr     error
}

func (f *fakeMessagingClient) FetchRecent(_ context.Context, channelID string, limit int) ([]domain.ChannelMessage, error) {
	f.fetchCalls++
	f.gotChannel = channelID
	f.gotLimit = limit
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.history, nil
}

func (f *fakeMessagingClient) Post(_ context.Context, channel, text string) (string, error) {
	if f.failAtChunk > 0 && len(f.posts)+1 == f.failAtChunk {
		return "", f.postErr
	}
	f.posts = append(f.posts, text)
	f.postChannel = channel
	return fmt.Sprintf("ts-%d", len(f.posts)), nil
}

type fakeResolver struct {
	names map[string]string
}

func (f *fakeResolver) ResolveUser(_ context.Context, userID string) (string, error) {
	if name, ok := f.names[userID]; ok {
		return name, nil
	}
	return "", errors.New("user_not_found")
}

func newTestService(completion *fakeCompletionClient, messaging *fakeMessagingClient, chunkLimit int) *askService {
	formatter := NewContextFormatter(&fakeResolver{}, 8000)
	sessions := repository.NewSessionRepository(time.Hour)
	return NewAskService(completion, messaging, formatter, sessions, AskConfig{
		DefaultModel:        "gpt-4o",
		DefaultMaxTokens:    4096,
		DefaultTemperature:  0.7,
		DefaultChannel:      "general",
		ContextMessageLimit: 10,
		MessageChunkLimit:   chunkLimit,
	})
}

func TestHandleAskSingleQuestion(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "pong", ModelUsed: "gpt-4o"}}
	messaging := &fakeMessagingClient{}
	svc := newTestService(completion, messaging, 2900)

	result, outcome, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "ping"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if messaging.fetchCalls != 0 {
		t.Errorf("expected no context fetch without source channel, got %d", messaging.fetchCalls)
	}
	if len(completion.gotTurns) != 1 || completion.gotTurns[0].Role != domain.RoleUser || completion.gotTurns[0].Content != "ping" {
		t.Errorf("expected single user turn 'ping', got %v", completion.gotTurns)
	}
	if result.AnswerText != "pong" {
		t.Errorf("expected answer 'pong', got %q", result.AnswerText)
	}
	if !outcome.Delivered || outcome.DestinationChannel != "general" {
		t.Errorf("expected delivery to default channel, got %+v", outcome)
	}
	if len(messaging.posts) != 1 || messaging.posts[0] != "pong" {
		t.Errorf("expected one posted chunk 'pong', got %q", messaging.posts)
	}
}

func TestHandleAskWithChannelContext(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "ok"}}
	messaging := &fakeMessagingClient{
		// Newest-first, as the messaging API returns them.
		history: []domain.ChannelMessage{
			{AuthorID: "A", Text: "hi", Timestamp: 2},
			{AuthorID: "B", Text: "yo", Timestamp: 1},
		},
	}
	svc := newTestService(completion, messaging, 2900)

	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{
		Question:            "what happened?",
		SourceChannel:       "C1",
		ContextMessageCount: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if messaging.gotChannel != "C1" || messaging.gotLimit != 2 {
		t.Errorf("expected fetch from C1 with limit 2, got %q limit %d", messaging.gotChannel, messaging.gotLimit)
	}
	if completion.calls != 1 {
		t.Fatalf("expected one completion call, got %d", completion.calls)
	}

	last := completion.gotTurns[len(completion.gotTurns)-1]
	contextIdx := strings.Index(last.Content, "B: yo\nA: hi")
	questionIdx := strings.Index(last.Content, "what happened?")
	if contextIdx < 0 {
		t.Fatalf("expected oldest-first context block in prompt, got %q", last.Content)
	}
	if questionIdx < contextIdx {
		t.Errorf("expected context to precede the question, got %q", last.Content)
	}
	if completion.gotTurns[0].Role != domain.RoleSystem {
		t.Errorf("expected default system prompt for context-grounded ask, got %v", completion.gotTurns[0])
	}
}

func TestHandleAskCapsContextMessageCount(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "ok"}}
	messaging := &fakeMessagingClient{history: []domain.ChannelMessage{{AuthorID: "A", Text: "hi", Timestamp: 1}}}
	svc := newTestService(completion, messaging, 2900)

	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{
		Question:            "q",
		SourceChannel:       "C1",
		ContextMessageCount: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messaging.gotLimit != contextMessageHardCap {
		t.Errorf("expected fetch limit capped at %d, got %d", contextMessageHardCap, messaging.gotLimit)
	}
}

func TestHandleAskContextFetchFailureAborts(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "ok"}}
	messaging := &fakeMessagingClient{fetchErr: domain.ErrChannelNotFound}
	svc := newTestService(completion, messaging, 2900)

	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "q", SourceChannel: "C1"})

	var fetchErr *domain.ContextFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected ContextFetchError, got %v", err)
	}
	if completion.calls != 0 {
		t.Errorf("expected no completion call after fetch failure, got %d", completion.calls)
	}
	if len(messaging.posts) != 0 {
		t.Errorf("expected no posts after fetch failure, got %q", messaging.posts)
	}
}

func TestHandleAskCompletionFailureSkipsDelivery(t *testing.T) {
	completion := &fakeCompletionClient{err: domain.ErrRateLimited}
	messaging := &fakeMessagingClient{}
	svc := newTestService(completion, messaging, 2900)

	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "q"})

	var completionErr *domain.CompletionError
	if !errors.As(err, &completionErr) {
		t.Fatalf("expected CompletionError, got %v", err)
	}
	if len(messaging.posts) != 0 {
		t.Errorf("expected no posts after completion failure, got %q", messaging.posts)
	}
}

func TestHandleAskPartialDelivery(t *testing.T) {
	answer := "aaaa\n\nbbbb\n\ncccc"
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: answer}}
	messaging := &fakeMessagingClient{failAtChunk: 2, postErr: domain.ErrRateLimited}
	svc := newTestService(completion, messaging, 6)

	result, outcome, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("expected no pipeline error on delivery failure, got %v", err)
	}

	if result.AnswerText != answer {
		t.Errorf("expected the answer to survive delivery failure, got %q", result.AnswerText)
	}
	if outcome.Delivered {
		t.Error("expected delivered=false after chunk failure")
	}
	if len(outcome.MessageIDs) != 1 {
		t.Errorf("expected exactly the first chunk to be reported sent, got %v", outcome.MessageIDs)
	}
	if !strings.Contains(outcome.Error, "chunk 2 of 3") {
		t.Errorf("expected error to reference the failing chunk index, got %q", outcome.Error)
	}
}

func TestHandleAskFullChunkedDelivery(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "aaaa\n\nbbbb\n\ncccc"}}
	messaging := &fakeMessagingClient{}
	svc := newTestService(completion, messaging, 6)

	_, outcome, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "q", DestinationChannel: "#answers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.Delivered || len(outcome.MessageIDs) != 3 {
		t.Errorf("expected all 3 chunks delivered, got %+v", outcome)
	}
	if outcome.DestinationChannel != "answers" {
		t.Errorf("expected channel prefix to be stripped, got %q", outcome.DestinationChannel)
	}
	if joined := strings.Join(messaging.posts, ""); joined != "aaaa\n\nbbbb\n\ncccc" {
		t.Errorf("expected chunks to reassemble the answer, got %q", joined)
	}
}

func TestHandleAskValidation(t *testing.T) {
	badTemperature := 1.5
	tests := []struct {
		name string
		req  domain.AskRequest
	}{
		{"empty request", domain.AskRequest{}},
		{"question and conversation together", domain.AskRequest{
			Question:     "q",
			Conversation: []domain.ConversationTurn{{Role: domain.RoleUser, Content: "hi"}},
		}},
		{"temperature out of range", domain.AskRequest{Question: "q", Temperature: &badTemperature}},
		{"negative max_tokens", domain.AskRequest{Question: "q", MaxTokens: -1}},
		{"bad conversation role", domain.AskRequest{
			Conversation: []domain.ConversationTurn{{Role: "narrator", Content: "hi"}},
		}},
	}

	for _, test := range tests {
		completion := &fakeCompletionClient{}
		svc := newTestService(completion, &fakeMessagingClient{}, 2900)

		_, _, err := svc.HandleAsk(context.Background(), test.req)

		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: expected ValidationError, got %v", test.name, err)
		}
		if completion.calls != 0 {
			t.Errorf("%s: expected no completion call, got %d", test.name, completion.calls)
		}
	}
}

func TestHandleAskConversationMode(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "ok"}}
	svc := newTestService(completion, &fakeMessagingClient{}, 2900)

	conversation := []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "and now?"},
	}
	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{Conversation: conversation})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(completion.gotTurns) != len(conversation) {
		t.Fatalf("expected %d turns, got %d", len(conversation), len(completion.gotTurns))
	}
	for i := range conversation {
		if completion.gotTurns[i] != conversation[i] {
			t.Errorf("turn %d: expected %v, got %v", i, conversation[i], completion.gotTurns[i])
		}
	}
}

func TestHandleAskSessionHistory(t *testing.T) {
	completion := &fakeCompletionClient{result: domain.CompletionResult{AnswerText: "it is sunny"}}
	messaging := &fakeMessagingClient{}
	formatter := NewContextFormatter(&fakeResolver{}, 8000)
	sessions := repository.NewSessionRepository(time.Hour)
	svc := NewAskService(completion, messaging, formatter, sessions, AskConfig{
		DefaultModel:      "gpt-4o",
		DefaultChannel:    "general",
		MessageChunkLimit: 2900,
	})

	sessions.Append("s1",
		domain.ConversationTurn{Role: domain.RoleUser, Content: "remember the weather"},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: "noted"},
	)

	_, _, err := svc.HandleAsk(context.Background(), domain.AskRequest{Question: "so?", SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(completion.gotTurns) != 3 {
		t.Fatalf("expected stored history plus new question, got %v", completion.gotTurns)
	}
	if completion.gotTurns[2].Content != "so?" {
		t.Errorf("expected new question last, got %v", completion.gotTurns[2])
	}

	turns, _ := sessions.Get("s1")
	if len(turns) != 4 || turns[3].Content != "it is sunny" {
		t.Errorf("expected question and answer appended to session, got %v", turns)
	}
}
