package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoValidSuggestions   = errors.New("no valid habits could be suggested from the text")
	ErrInvalidSuggestInput    = errors.New("invalid suggestion request")
)

// SuggestedHabit is a habit idea returned by the model. Suggestions are never
// stored; clients submit them through the regular create endpoint.
type SuggestedHabit struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// NewAIServiceWithConfig builds the service from a full client config, e.g.
// to point it at a different base URL.
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

type suggestRequest struct {
	Text string `json:"text" validate:"required,suggesttext"`
}

// SuggestHabits asks the model for habit ideas matching text and keeps those
// that pass habit validation.
func (s *AIService) SuggestHabits(ctx context.Context, text string) ([]SuggestedHabit, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if err := validateStruct(ErrInvalidSuggestInput, suggestRequest{Text: text}); err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You help people build daily habits. Suggest at most %d daily habits for the goal below.

Goal:
%s

Answer with a JSON array only, no prose:
[
  {
    "name": "short habit name, at most %d characters",
    "description": "one sentence, at most %d characters",
    "color": "hex color like #4CAF50",
    "icon": "a single emoji"
  }
]

Return [] if the text contains no goal.`,
		constants.MaxAISuggestedHabits,
		text,
		constants.MaxHabitNameLength,
		constants.MaxHabitDescriptionLength,
	)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
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
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []SuggestedHabit
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	suggestions := make([]SuggestedHabit, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		in := HabitInput{
			Name:        r.Name,
			Description: r.Description,
			Color:       r.Color,
			Icon:        r.Icon,
		}.normalized()

		// Fall back to defaults rather than dropping an otherwise good idea.
		if validate.Var(in.Color, "habitcolor") != nil {
			in.Color = constants.DefaultHabitColor
		}
		if validate.Var(in.Icon, "habiticon") != nil {
			in.Icon = constants.DefaultHabitIcon
		}
		if validateStruct(ErrInvalidHabit, in) != nil {
			continue
		}
		if _, dup := seen[in.Name]; dup {
			continue
		}
		seen[in.Name] = struct{}{}

		suggestions = append(suggestions, SuggestedHabit(in))
		if len(suggestions) == constants.MaxAISuggestedHabits {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoValidSuggestions
	}

	return suggestions, nil
}
