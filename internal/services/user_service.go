package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

type ListUsersParams struct {
	validation.Pagination
}

type UserContentParams struct {
	validation.Pagination
	UserID string `json:"userId" validate:"required"`
}

type UpdateProfileParams struct {
	Name      string `json:"name" validate:"required,min=1,max=50"`
	Bio       string `json:"bio" validate:"max=300"`
	Image     string `json:"image" validate:"omitempty,image"`
	Location  string `json:"location" validate:"max=100"`
	Portfolio string `json:"portfolio" validate:"omitempty,url"`
}

// UserProfile is a user with their content totals.
type UserProfile struct {
	User           *models.User `json:"user"`
	TotalQuestions int64        `json:"totalQuestions"`
	TotalAnswers   int64        `json:"totalAnswers"`
}

type UserService struct {
	Deps
}

func NewUserService(deps Deps) *UserService {
	return &UserService{Deps: deps.withDefaults()}
}

func (s *UserService) Get(ctx context.Context, params UserIDParams) (*UserProfile, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	id := res.Params.UserID
	user, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.Store.Questions().CountByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.Store.Answers().CountByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: user, TotalQuestions: questions, TotalAnswers: answers}, nil
}

func (s *UserService) List(ctx context.Context, params ListUsersParams) (*Page[models.User], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params.Pagination
	users, total, err := s.Store.Users().List(ctx, repositories.UserQuery{Page: toPage(p), Query: p.Query, Filter: p.Filter})
	if err != nil {
		return nil, err
	}
	return newPage(p, users, total), nil
}

func (s *UserService) Questions(ctx context.Context, params UserContentParams) (*Page[models.Question], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	questions, total, err := s.Store.Questions().List(ctx, repositories.QuestionQuery{
		Page:     toPage(p.Pagination),
		Filter:   p.Filter,
		AuthorID: p.UserID,
	})
	if err != nil {
		return nil, err
	}
	return newPage(p.Pagination, questions, total), nil
}

func (s *UserService) Answers(ctx context.Context, params UserContentParams) (*Page[models.Answer], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	answers, total, err := s.Store.Answers().List(ctx, repositories.AnswerQuery{
		Page:     toPage(p.Pagination),
		Filter:   p.Filter,
		AuthorID: p.UserID,
	})
	if err != nil {
		return nil, err
	}
	return newPage(p.Pagination, answers, total), nil
}

// UpdateProfile replaces the caller's editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.User, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p, userID := res.Params, res.Session.UserID

	fields := map[string]any{
		"name":      strings.TrimSpace(p.Name),
		"bio":       p.Bio,
		"location":  p.Location,
		"portfolio": p.Portfolio,
	}
	if p.Image != "" {
		fields["image"] = p.Image
	}
	user, err := s.Store.Users().Update(ctx, userID, fields)
	if err != nil {
		s.aborted("update profile", err, zap.String("user_id", userID))
		return nil, err
	}
	s.Logger.Info("profile updated", zap.String("user_id", userID))
	return user, nil
}
