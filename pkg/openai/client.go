package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type client struct {
	api     *goopenai.Client
	timeout time.Duration
}

func NewClient(token string, timeout time.Duration) (*client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	return &client{
		api:     goopenai.NewClient(token),
		timeout: timeout,
	}, nil
}

// CreateCompletion runs a single chat completion. Failures come back as one
// of the domain sentinel kinds where the cause is recognizable.
func (c *client) CreateCompletion(
	ctx context.Context,
	model string,
	maxTokens int,
	temperature float64,
	turns []domain.ConversationTurn,
) (domain.CompletionResult, error) {
	if c.timeout > 0 {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(ctx, c.timeout)
		defer cancelFn()
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: requestTemperature(temperature),
		Messages:    messages,
	})
	if err != nil {
		return domain.CompletionResult{}, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return domain.CompletionResult{}, fmt.Errorf("no choices in response: %w", domain.ErrMalformedResponse)
	}

	message := resp.Choices[0].Message
	if message.Role != goopenai.ChatMessageRoleAssistant {
		return domain.CompletionResult{}, fmt.Errorf("unexpected role %q: %w", message.Role, domain.ErrMalformedResponse)
	}

	return domain.CompletionResult{
		AnswerText:       message.Content,
		ModelUsed:        resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// requestTemperature maps the caller's temperature onto the SDK request
// field, which is tagged omitempty: a literal 0 would vanish from the wire
// request and the API would sample at its own default instead. The smallest
// positive float32 survives serialization and is indistinguishable from 0
// for sampling purposes.
func requestTemperature(temperature float64) float32 {
	if temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(temperature)
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("completion api: %w", domain.ErrTimeout)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("completion api: %v: %w", err, domain.ErrAuth)
		case http.StatusTooManyRequests:
			return fmt.Errorf("completion api: %v: %w", err, domain.ErrRateLimited)
		}
	}

	return fmt.Errorf("completion api: %w", err)
}
