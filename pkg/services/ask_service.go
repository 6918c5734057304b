package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/format"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/logger"
)

type CompletionClient interface {
	CreateCompletion(
		ctx context.Context,
		model string,
		maxTokens int,
		temperature float64,
		turns []domain.ConversationTurn,
	) (domain.CompletionResult, error)
}

type MessagingClient interface {
	FetchRecent(ctx context.Context, channelID string, limit int) ([]domain.ChannelMessage, error)
	Post(ctx context.Context, channelID, text string) (string, error)
}

type ContextFormatter interface {
	Format(ctx context.Context, messages []domain.ChannelMessage) string
}

type SessionRepository interface {
	Get(sessionID string) ([]domain.ConversationTurn, bool)
	Append(sessionID string, turns ...domain.ConversationTurn)
}

type AskConfig struct {
	DefaultModel       string
	DefaultMaxTokens   int
	DefaultTemperature float64
	DefaultChannel     string

	// ContextMessageLimit is the fetch size used when the caller omits one.
	ContextMessageLimit int
	MessageChunkLimit   int
}

// contextMessageHardCap bounds the context fetch regardless of caller input.
const contextMessageHardCap = 50

type askService struct {
	completion CompletionClient
	messaging  MessagingClient
	formatter  ContextFormatter
	sessions   SessionRepository
	cfg        AskConfig
}

func NewAskService(
	completion CompletionClient,
	messaging MessagingClient,
	formatter ContextFormatter,
	sessions SessionRepository,
	cfg AskConfig,
) *askService {
	return &askService{
		completion: completion,
		messaging:  messaging,
		formatter:  formatter,
		sessions:   sessions,
		cfg:        cfg,
	}
}

// HandleAsk runs the fixed pipeline: validate, fetch context if requested,
// build the prompt, request a completion, then deliver the answer to the
// destination channel. The completion result is returned even when delivery
// fails; delivery problems are reported in the outcome, not as an error.
func (s *askService) HandleAsk(ctx context.Context, req domain.AskRequest) (domain.CompletionResult, domain.DeliveryOutcome, error) {
	if err := s.validate(&req); err != nil {
		return domain.CompletionResult{}, domain.DeliveryOutcome{}, err
	}

	conversation := req.Conversation
	if len(conversation) == 0 && req.SessionID != "" {
		if stored, ok := s.sessions.Get(req.SessionID); ok {
			conversation = stored
		}
	}

	contextText := ""
	if req.SourceChannel != "" {
		text, err := s.fetchContext(ctx, req)
		if err != nil {
			return domain.CompletionResult{}, domain.DeliveryOutcome{}, err
		}
		contextText = text
	}

	turns := s.buildTurns(req, conversation, contextText)
	model := lo.Ternary(req.Model != "", req.Model, s.cfg.DefaultModel)
	maxTokens := lo.Ternary(req.MaxTokens > 0, req.MaxTokens, s.cfg.DefaultMaxTokens)
	temperature := s.cfg.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	slog.InfoContext(ctx, "requesting completion", "model", model, "turns", len(turns), "hasContext", contextText != "")

	result, err := s.completion.CreateCompletion(ctx, model, maxTokens, temperature, turns)
	if err != nil {
		return domain.CompletionResult{}, domain.DeliveryOutcome{}, &domain.CompletionError{Err: err}
	}
	slog.InfoContext(ctx, "completion received", "model", result.ModelUsed, "answerLength", len(result.AnswerText), "totalTokens", result.TotalTokens)

	if req.SessionID != "" && req.Question != "" {
		s.sessions.Append(req.SessionID,
			domain.ConversationTurn{Role: domain.RoleUser, Content: req.Question},
			domain.ConversationTurn{Role: domain.RoleAssistant, Content: result.AnswerText},
		)
	}

	destination := strings.TrimLeft(lo.Ternary(req.DestinationChannel != "", req.DestinationChannel, s.cfg.DefaultChannel), "#@")
	outcome := s.deliver(ctx, destination, result.AnswerText)

	return result, outcome, nil
}

func (s *askService) validate(req *domain.AskRequest) error {
	hasQuestion := strings.TrimSpace(req.Question) != ""
	hasConversation := len(req.Conversation) > 0

	switch {
	case !hasQuestion && !hasConversation:
		return &domain.ValidationError{Reason: "question or conversation must be provided"}
	case hasQuestion && hasConversation:
		return &domain.ValidationError{Reason: "provide either question or conversation, not both"}
	}

	for i, turn := range req.Conversation {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			return &domain.ValidationError{Reason: fmt.Sprintf("conversation turn %d has unsupported role %q", i, turn.Role)}
		}
		if turn.Content == "" {
			return &domain.ValidationError{Reason: fmt.Sprintf("conversation turn %d has empty content", i)}
		}
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 1) {
		return &domain.ValidationError{Reason: "temperature must be within [0, 1]"}
	}
	if req.MaxTokens < 0 {
		return &domain.ValidationError{Reason: "max_tokens must be positive"}
	}
	if req.ContextMessageCount < 0 {
		return &domain.ValidationError{Reason: "context_message_count must not be negative"}
	}
	if req.DestinationChannel == "" && s.cfg.DefaultChannel == "" {
		return &domain.ValidationError{Reason: "no destination channel configured"}
	}

	req.SourceChannel = strings.TrimLeft(req.SourceChannel, "#@")
	return nil
}

func (s *askService) fetchContext(ctx context.Context, req domain.AskRequest) (string, error) {
	limit := req.ContextMessageCount
	if limit == 0 {
		limit = s.cfg.ContextMessageLimit
	}
	if limit > contextMessageHardCap {
		limit = contextMessageHardCap
	}

	messages, err := s.messaging.FetchRecent(ctx, req.SourceChannel, limit)
	if err != nil {
		return "", &domain.ContextFetchError{Channel: req.SourceChannel, Err: err}
	}
	if len(messages) == 0 {
		return "", &domain.ContextFetchError{Channel: req.SourceChannel, Err: fmt.Errorf("no usable messages in channel")}
	}

	slog.InfoContext(ctx, "fetched channel context", "channel", req.SourceChannel, "messages", len(messages))
	return s.formatter.Format(ctx, messages), nil
}

func (s *askService) buildTurns(req domain.AskRequest, conversation []domain.ConversationTurn, contextText string) []domain.ConversationTurn {
	system := req.System
	if system == "" && contextText != "" {
		system = domain.DefaultSystemPrompt
	}

	var turns []domain.ConversationTurn
	if system != "" {
		turns = append(turns, domain.ConversationTurn{Role: domain.RoleSystem, Content: system})
	}

	if len(conversation) > 0 {
		if contextText != "" {
			turns = append(turns, domain.ConversationTurn{
				Role:    domain.RoleSystem,
				Content: "Recent messages from the Slack channel for context:\n\n" + contextText,
			})
		}
		turns = append(turns, conversation...)
		// Session mode: stored history first, then the new question.
		if req.Question != "" {
			turns = append(turns, domain.ConversationTurn{Role: domain.RoleUser, Content: req.Question})
		}
		return turns
	}

	content := req.Question
	if contextText != "" {
		content = "The following is a conversation fetched from a Slack channel:\n\n" +
			contextText +
			"\n\nBased on the conversation above, answer this question: " + req.Question
	}
	return append(turns, domain.ConversationTurn{Role: domain.RoleUser, Content: content})
}

// deliver posts the answer in ordered chunks. A failed chunk stops the loop;
// chunks already posted stay posted and are reported in the outcome.
func (s *askService) deliver(ctx context.Context, channel, answer string) domain.DeliveryOutcome {
	outcome := domain.DeliveryOutcome{DestinationChannel: channel}

	chunks := format.SplitMessage(format.Mrkdwn(answer), s.cfg.MessageChunkLimit)
	for i, chunk := range chunks {
		messageID, err := s.messaging.Post(ctx, channel, chunk)
		if err != nil {
			outcome.Error = fmt.Sprintf("posting chunk %d of %d: %v", i+1, len(chunks), err)
			slog.ErrorContext(ctx, "delivery failed", "channel", channel, "chunk", i+1, "chunks", len(chunks), logger.Err(err))
			return outcome
		}
		outcome.MessageIDs = append(outcome.MessageIDs, messageID)
	}

	outcome.Delivered = true
	slog.InfoContext(ctx, "answer delivered", "channel", channel, "chunks", len(chunks))
	return outcome
}
