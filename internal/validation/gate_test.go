package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"querystack/internal/apperror"
	"querystack/internal/auth"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type askParams struct {
	Title   string   `json:"title" validate:"required,min=5,max=130"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags" validate:"min=1,max=3,dive,notblank,max=30"`
}

type listParams struct {
	Pagination
	UserID string `json:"userId" validate:"required"`
}

type signUpParams struct {
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Password string `json:"password" validate:"required,min=8,max=20,password"`
	Image    string `json:"image" validate:"omitempty,image"`
}

type oauthParams struct {
	Provider string `json:"provider" validate:"oneof=google github"`
	User     struct {
		Email string `json:"email" validate:"required,email"`
	} `json:"user"`
}

func validAsk() askParams {
	return askParams{
		Title:   "How do I center a div?",
		Content: "I have tried flexbox and grid without luck.",
		Tags:    []string{"css"},
	}
}

func TestCheck_PassesAndResolvesSession(t *testing.T) {
	pinger := new(mockPinger)
	pinger.On("Ping", mock.Anything).Return(nil)
	gate := NewGate(auth.ContextOracle{}, pinger)

	session := &auth.Session{UserID: "u-1"}
	ctx := auth.WithSession(context.Background(), session)

	res, err := Check(ctx, gate, validAsk(), true)
	require.NoError(t, err)
	assert.Same(t, session, res.Session)
	assert.Equal(t, "How do I center a div?", res.Params.Title)
	pinger.AssertExpectations(t)
}

func TestCheck_Unauthorized(t *testing.T) {
	pinger := new(mockPinger)
	gate := NewGate(auth.ContextOracle{}, pinger)

	_, err := Check(context.Background(), gate, validAsk(), true)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	pinger.AssertNotCalled(t, "Ping", mock.Anything)

	pinger.On("Ping", mock.Anything).Return(nil)
	res, err := Check(context.Background(), gate, validAsk(), false)
	require.NoError(t, err)
	assert.Nil(t, res.Session)
}

func TestCheck_ValidationRunsBeforeSession(t *testing.T) {
	gate := NewGate(auth.ContextOracle{}, new(mockPinger))

	_, err := Check(context.Background(), gate, askParams{Title: "Hi", Tags: []string{"a", "b", "c", "d"}}, true)
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"must be at least 5 characters"}, appErr.Details["title"])
	assert.Equal(t, []string{"is required"}, appErr.Details["content"])
	assert.Equal(t, []string{"must have at most 3 item(s)"}, appErr.Details["tags"])
	assert.Contains(t, appErr.Message, "Title: must be at least 5 characters")
}

func TestCheck_StoreUnavailable(t *testing.T) {
	pinger := new(mockPinger)
	pinger.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	gate := NewGate(auth.ContextOracle{}, pinger)

	_, err := Check(context.Background(), gate, validAsk(), false)
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestCheck_AppliesPaginationDefaults(t *testing.T) {
	pinger := new(mockPinger)
	pinger.On("Ping", mock.Anything).Return(nil)
	gate := NewGate(auth.ContextOracle{}, pinger)

	res, err := Check(context.Background(), gate, listParams{UserID: "u-1"}, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, res.Params.Page)
	assert.Equal(t, DefaultPageSize, res.Params.PageSize)

	_, err = Check(context.Background(), gate, listParams{UserID: "u-1", Pagination: Pagination{PageSize: 101}}, false)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"must be at most 100"}, appErr.Details["pageSize"])
}

func TestGate_CustomRules(t *testing.T) {
	gate := NewGate(auth.ContextOracle{}, new(mockPinger))

	tests := []struct {
		name   string
		params any
		field  string
	}{
		{"username charset", signUpParams{Username: "bad name!", Password: "Str0ng!pass"}, "username"},
		{"weak password", signUpParams{Username: "ada", Password: "weakpassword"}, "password"},
		{"image not url", signUpParams{Username: "ada", Password: "Str0ng!pass", Image: "nope"}, "image"},
		{"provider enum", oauthParams{Provider: "gitlab"}, "provider"},
		{"nested email", oauthParams{Provider: "github"}, "user.email"},
		{"blank tag", askParams{Title: "Valid title", Content: "long enough content here", Tags: []string{"  "}}, "tags[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Struct(tt.params)
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}

	assert.NoError(t, gate.Struct(signUpParams{Username: "ada_l", Password: "Str0ng!pass", Image: "data:image/png;base64,AAAA"}))
}

func TestPagination_IsNext(t *testing.T) {
	p := Pagination{Page: 2, PageSize: 10}
	assert.True(t, p.IsNext(25, 10))
	assert.False(t, p.IsNext(20, 10))
	assert.False(t, p.IsNext(15, 5))
}
