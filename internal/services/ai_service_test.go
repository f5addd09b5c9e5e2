package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"querystack/internal/ai"
	"querystack/internal/apperror"
	"querystack/internal/services"
)

// MockGenerator is a mock implementation of ai.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateAnswer(ctx context.Context, d ai.Draft) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func TestAIService_GenerateAnswer(t *testing.T) {
	e := newEnv(t)
	gen := new(MockGenerator)
	svc := services.NewAIService(e.deps, gen)
	params := services.GenerateAnswerParams{
		Question: "How do I center a div?",
		Content:  strings.Repeat("flexbox ", 20),
	}

	gen.On("GenerateAnswer", mock.Anything, ai.Draft{Question: params.Question, Content: params.Content}).
		Return("Use **flexbox**.", nil).Once()
	text, err := svc.GenerateAnswer(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "Use **flexbox**.", text)

	gen.On("GenerateAnswer", mock.Anything, mock.Anything).
		Return("", apperror.Unavailable("Answer generation timed out")).Once()
	_, err = svc.GenerateAnswer(context.Background(), params)
	assert.ErrorIs(t, err, apperror.ErrUnavailable)

	_, err = svc.GenerateAnswer(context.Background(), services.GenerateAnswerParams{Question: "Q", Content: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	gen.AssertExpectations(t)
}
