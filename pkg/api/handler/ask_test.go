package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/domain"
)

type fakePipeline struct {
	gotReq   domain.AskRequest
	result   domain.CompletionResult
	delivery domain.DeliveryOutcome
	err      error
}

func (f *fakePipeline) HandleAsk(_ context.Context, req domain.AskRequest) (domain.CompletionResult, domain.DeliveryOutcome, error) {
	f.gotReq = req
	return f.result, f.delivery, f.err
}

func TestAskHandle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		pipeline   *fakePipeline
		wantStatus int
	}{
		{
			name: "answer delivered",
			body: `{"question":"ping","destination_channel":"general"}`,
			pipeline: &fakePipeline{
				result:   domain.CompletionResult{AnswerText: "pong", ModelUsed: "gpt-4o"},
				delivery: domain.DeliveryOutcome{Delivered: true, DestinationChannel: "general", MessageIDs: []string{"1.1"}},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "delivery failure still succeeds",
			body: `{"question":"ping"}`,
			pipeline: &fakePipeline{
				result:   domain.CompletionResult{AnswerText: "pong"},
				delivery: domain.DeliveryOutcome{Delivered: false, Error: "posting chunk 1 of 1: boom"},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "validation error",
			body:       `{"question":""}`,
			pipeline:   &fakePipeline{err: &domain.ValidationError{Reason: "question is required"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "completion failure",
			body:       `{"question":"ping"}`,
			pipeline:   &fakePipeline{err: &domain.CompletionError{Err: domain.ErrRateLimited}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "context fetch failure",
			body:       `{"question":"ping","source_channel":"dev"}`,
			pipeline:   &fakePipeline{err: &domain.ContextFetchError{Channel: "dev", Err: domain.ErrChannelNotFound}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown failure",
			body:       `{"question":"ping"}`,
			pipeline:   &fakePipeline{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "malformed body",
			body:       `{"question":`,
			pipeline:   &fakePipeline{},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAsk(tt.pipeline)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tt.body))

			h.Handle(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAskHandleResponseBody(t *testing.T) {
	pipeline := &fakePipeline{
		result: domain.CompletionResult{AnswerText: "pong", ModelUsed: "gpt-4o", TotalTokens: 7},
		delivery: domain.DeliveryOutcome{
			Delivered:          true,
			DestinationChannel: "general",
			MessageIDs:         []string{"1.1", "1.2"},
		},
	}
	h := NewAsk(pipeline)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"ping"}`))

	h.Handle(rec, req)

	var got askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Result.AnswerText != "pong" || got.Result.TotalTokens != 7 {
		t.Errorf("result: got %+v", got.Result)
	}
	if !got.Delivery.Delivered || len(got.Delivery.MessageIDs) != 2 {
		t.Errorf("delivery: got %+v", got.Delivery)
	}
	if pipeline.gotReq.Question != "ping" {
		t.Errorf("request question: got %q", pipeline.gotReq.Question)
	}
}
