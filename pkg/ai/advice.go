package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// ErrNoProvider is returned when no LLM provider is configured.
var ErrNoProvider = errors.New("no AI provider configured")

// Advice is one piece of strategic advice.
type Advice struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FallbackAdvice is returned whenever the provider fails.
var FallbackAdvice = []Advice{{
	Title:   "A small technical hiccup, champ",
	Content: "The AI is taking a breather. Keep working on your goals!",
}}

// Advisor produces advice from the dashboard state.
type Advisor struct {
	gen    Generator
	logger *zap.Logger
}

// NewAdvisor creates an advisor. gen may be nil, in which case every request
// yields the fallback advice.
func NewAdvisor(gen Generator, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{gen: gen, logger: logger}
}

// Advise returns advice for the given state. On any failure it returns
// FallbackAdvice together with the error, so callers can always render a
// result.
func (a *Advisor) Advise(ctx context.Context, goals []model.Goal, tasks []model.Task, user model.UserState) ([]Advice, error) {
	if a.gen == nil {
		return fallback(), ErrNoProvider
	}

	text, err := a.gen.GenerateText(ctx, AdvicePrompt(goals, tasks, user))
	if err != nil {
		a.logger.Warn("advice generation failed", zap.Error(err))
		return fallback(), fmt.Errorf("failed to generate advice: %w", err)
	}

	advice, err := ParseAdvice(text)
	if err != nil {
		a.logger.Warn("advice response unusable", zap.Error(err), zap.String("raw", text))
		return fallback(), err
	}
	return advice, nil
}

// Review asks the provider for a markdown weekly review.
func (a *Advisor) Review(ctx context.Context, goals []model.Goal, tasks []model.Task, user model.UserState) (string, error) {
	if a.gen == nil {
		return "", ErrNoProvider
	}

	var open []string
	for _, t := range model.FilterTasks(tasks, model.FilterActive) {
		open = append(open, t.Title)
	}
	prompt := ReviewPrompt(model.Summarize(goals, tasks), model.VictoryOrPlaceholder(user), open)

	text, err := a.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate review: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// ParseAdvice decodes a JSON array of advice, tolerating markdown code fences.
func ParseAdvice(text string) ([]Advice, error) {
	var advice []Advice
	if err := json.Unmarshal([]byte(cleanJSON(text)), &advice); err != nil {
		return nil, fmt.Errorf("failed to parse advice: %w", err)
	}

	out := advice[:0]
	for _, a := range advice {
		if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Content) == "" {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, errors.New("failed to parse advice: empty list")
	}
	return out, nil
}

func fallback() []Advice {
	return append([]Advice(nil), FallbackAdvice...)
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
