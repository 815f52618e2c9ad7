package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
)

// newFakeOpenAI serves a chat completion whose message content is reply.
func newFakeOpenAI(t *testing.T, reply string) *AIService {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: openai.GPT4o,
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: reply,
					},
					FinishReason: openai.FinishReasonStop,
				},
			},
		}))
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewAIServiceWithConfig(cfg, openai.GPT4o)
}

func TestAIService_SuggestHabits(t *testing.T) {
	ai := newFakeOpenAI(t, "```json\n"+`[
		{"name": "Drink water", "description": "Eight glasses a day", "color": "#2196F3", "icon": "💧"},
		{"name": "Walk", "description": "Ten thousand steps", "color": "blue", "icon": "too long"},
		{"name": "Drink water", "description": "Duplicate", "color": "#2196F3", "icon": "💧"},
		{"name": "", "description": "No name", "color": "#000000", "icon": "x"}
	]`+"\n```")

	suggestions, err := ai.SuggestHabits(context.Background(), "I want to be healthier")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, SuggestedHabit{Name: "Drink water", Description: "Eight glasses a day", Color: "#2196F3", Icon: "💧"}, suggestions[0])
	assert.Equal(t, "Walk", suggestions[1].Name)
	assert.Equal(t, constants.DefaultHabitColor, suggestions[1].Color)
	assert.Equal(t, constants.DefaultHabitIcon, suggestions[1].Icon)
}

func TestAIService_SuggestHabitsCapsResults(t *testing.T) {
	ideas := make([]SuggestedHabit, 0, 8)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		ideas = append(ideas, SuggestedHabit{Name: name, Description: "d", Color: "#111111", Icon: "✅"})
	}
	reply, err := json.Marshal(ideas)
	require.NoError(t, err)

	suggestions, err := newFakeOpenAI(t, string(reply)).SuggestHabits(context.Background(), "everything")
	require.NoError(t, err)
	assert.Len(t, suggestions, constants.MaxAISuggestedHabits)
}

func TestAIService_SuggestHabitsErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		var ai *AIService
		_, err := ai.SuggestHabits(context.Background(), "sleep more")
		assert.ErrorIs(t, err, ErrAIServiceNotConfigured)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := newFakeOpenAI(t, "[]").SuggestHabits(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrInvalidSuggestInput)
	})

	t.Run("no usable ideas", func(t *testing.T) {
		_, err := newFakeOpenAI(t, "[]").SuggestHabits(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrAINoValidSuggestions)
	})

	t.Run("malformed reply", func(t *testing.T) {
		_, err := newFakeOpenAI(t, "Sure! Here are some habits.").SuggestHabits(context.Background(), "hello")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAINoValidSuggestions)
	})
}

func TestAIService_SuggestHabitsRejectsLongText(t *testing.T) {
	ai := newFakeOpenAI(t, "[]")

	_, err := ai.SuggestHabits(context.Background(), strings.Repeat("a", constants.MaxAIInputLength+1))
	require.ErrorIs(t, err, ErrInvalidSuggestInput)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "max", validationErr.Fields["text"])
}
