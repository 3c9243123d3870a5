package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/logging"
)

func newFakeOpenAI(t *testing.T, content string, status int) *AIService {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: content,
					},
					FinishReason: openai.FinishReasonStop,
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewAIServiceWithClient(openai.NewClientWithConfig(cfg), logging.Discard())
}

func TestSuggestTasks_KeepsValidSuggestions(t *testing.T) {
	s := newFakeOpenAI(t, "```json\n"+`[
		{"title": "Book flights", "importance": 7, "deadline": "2030-05-01", "est_time_days": 1, "description": null},
		{"title": "", "importance": 3, "deadline": "2030-05-02"},
		{"title": "Pack", "importance": 2, "deadline": "someday"}
	]`+"\n```", http.StatusOK)

	tasks, err := s.SuggestTasks(context.Background(), "Trip to Lisbon in May, book flights first")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Book flights", tasks[0].Title)
	assert.Equal(t, 7, tasks[0].Importance)
	require.NotNil(t, tasks[0].EstTimeDays)
	assert.Equal(t, 1, *tasks[0].EstTimeDays)
	assert.Nil(t, tasks[0].Description)
}

func TestSuggestTasks_EmptyArray(t *testing.T) {
	s := newFakeOpenAI(t, "[]", http.StatusOK)

	tasks, err := s.SuggestTasks(context.Background(), "nothing to do here")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSuggestTasks_Failures(t *testing.T) {
	var unconfigured *AIService
	_, err := unconfigured.SuggestTasks(context.Background(), "text")
	assert.Equal(t, apierrors.KindServiceUnavailable, apierrors.KindOf(err))

	_, err = newFakeOpenAI(t, "", http.StatusInternalServerError).SuggestTasks(context.Background(), "text")
	assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))

	_, err = newFakeOpenAI(t, "I could not find tasks.", http.StatusOK).SuggestTasks(context.Background(), "text")
	assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))

	_, err = newFakeOpenAI(t, `[{"title": "", "importance": 1, "deadline": "2030-01-01"}]`, http.StatusOK).
		SuggestTasks(context.Background(), "text")
	assert.ErrorIs(t, err, ErrAINoValidTasks)
}
