package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type AskPipeline interface {
	HandleAsk(ctx context.Context, req domain.AskRequest) (domain.CompletionResult, domain.DeliveryOutcome, error)
}

type ask struct {
	pipeline AskPipeline
	writer   response.JSONResponseWriter
}

func NewAsk(pipeline AskPipeline) *ask {
	return &ask{pipeline: pipeline}
}

type askResponse struct {
	Result   domain.CompletionResult `json:"result"`
	Delivery domain.DeliveryOutcome  `json:"delivery"`
}

// Handle serves POST /ask. Delivery failure is reported in the body, not as
// an HTTP failure, because the answer itself was produced.
func (a *ask) Handle(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writer.WriteErrorResponse(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}

	result, delivery, err := a.pipeline.HandleAsk(r.Context(), req)
	if err != nil {
		a.writer.WriteErrorResponse(w, pipelineStatus(err), err.Error())
		return
	}

	a.writer.WriteSuccessResponse(w, askResponse{Result: result, Delivery: delivery})
}

func pipelineStatus(err error) int {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	var fetchErr *domain.ContextFetchError
	var completionErr *domain.CompletionError
	if errors.As(err, &fetchErr) || errors.As(err, &completionErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
