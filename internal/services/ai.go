package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/taskmanager/internal/constants"
	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
)

var (
	ErrAIServiceNotConfigured = apierrors.New(apierrors.KindServiceUnavailable, "task suggestions are not configured")
	ErrAIUpstream             = apierrors.New(apierrors.KindUpstream, "task suggestion service failed")
	ErrAINoValidTasks         = apierrors.New(apierrors.KindUpstream, "no valid tasks could be built from the suggestion")
)

// AIService proposes tasks from free text. Suggestions are never stored.
type AIService struct {
	client *openai.Client
	log    *slog.Logger
	now    func() time.Time
}

// NewAIService creates an AIService talking to the public OpenAI endpoint.
func NewAIService(apiKey string, log *slog.Logger) *AIService {
	return NewAIServiceWithClient(openai.NewClient(apiKey), log)
}

// NewAIServiceWithClient creates an AIService over a preconfigured client.
func NewAIServiceWithClient(client *openai.Client, log *slog.Logger) *AIService {
	return &AIService{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

const suggestPrompt = `You extract actionable tasks from the text below.

Current time: %s

Text:
%s

Reply with a JSON array only, no prose. Each element:
{
  "title": "short title, at most 100 characters",
  "importance": 0-10 integer, higher is more important,
  "deadline": "YYYY-MM-DD or RFC3339 timestamp; resolve relative dates such as tomorrow",
  "est_time_days": integer number of days or null,
  "description": "details or null"
}

Return [] when the text contains no task. Return at most %d tasks.`

// SuggestTasks asks the model for tasks found in text and keeps those that
// would pass add-task validation.
func (s *AIService) SuggestTasks(ctx context.Context, text string) ([]dto.SuggestedTaskDTO, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(suggestPrompt, s.now().Format("2006-01-02 15:04:05"), text, constants.MaxSuggestedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		s.log.ErrorContext(ctx, "openai request failed", "error", err)
		return nil, ErrAIUpstream
	}

	if len(resp.Choices) == 0 {
		s.log.WarnContext(ctx, "openai returned no choices")
		return nil, ErrAIUpstream
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var generated []dto.SuggestedTaskDTO
	if err := json.Unmarshal([]byte(content), &generated); err != nil {
		s.log.WarnContext(ctx, "unparseable suggestion", "error", err, "content", content)
		return nil, ErrAIUpstream
	}

	suggestions := make([]dto.SuggestedTaskDTO, 0, len(generated))
	for _, task := range generated {
		if len(suggestions) == constants.MaxSuggestedTasks {
			break
		}
		if err := dto.ValidatePayload(suggestionPayload(task)); err != nil {
			s.log.DebugContext(ctx, "dropping invalid suggestion", "title", task.Title, "error", err)
			continue
		}
		suggestions = append(suggestions, task)
	}

	if len(generated) > 0 && len(suggestions) == 0 {
		return nil, ErrAINoValidTasks
	}

	return suggestions, nil
}

func suggestionPayload(task dto.SuggestedTaskDTO) dto.AddTaskPayload {
	return dto.AddTaskPayload{
		TaskFieldsPayload: dto.TaskFieldsPayload{
			Title:       &task.Title,
			Importance:  &task.Importance,
			Deadline:    &task.Deadline,
			EstTimeDays: task.EstTimeDays,
			Description: task.Description,
		},
	}
}

// stripCodeFence removes a markdown code fence the model sometimes wraps JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
