package services

import (
	"context"

	"go.uber.org/zap"

	"querystack/internal/ai"
	"querystack/internal/validation"
)

type GenerateAnswerParams struct {
	Question   string `json:"question" validate:"required,min=1,max=500"`
	Content    string `json:"content" validate:"required,min=100"`
	UserAnswer string `json:"userAnswer"`
}

// AIService drafts answers. Drafts pre-fill the answer form and are never
// stored.
type AIService struct {
	Deps
	generator ai.Generator
}

func NewAIService(deps Deps, generator ai.Generator) *AIService {
	return &AIService{Deps: deps.withDefaults(), generator: generator}
}

func (s *AIService) GenerateAnswer(ctx context.Context, params GenerateAnswerParams) (string, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return "", err
	}
	p := res.Params
	text, err := s.generator.GenerateAnswer(ctx, ai.Draft{
		Question:   p.Question,
		Content:    p.Content,
		UserAnswer: p.UserAnswer,
	})
	if err != nil {
		s.Logger.Warn("answer generation failed", zap.Error(err))
		return "", err
	}
	return text, nil
}
