package services

import (
	"context"

	"querystack/internal/cache"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

const (
	topTagsLimit  = 5
	userTagsLimit = 10
)

type ListTagsParams struct {
	validation.Pagination
}

type TagQuestionsParams struct {
	validation.Pagination
	TagID string `json:"tagId" validate:"required"`
}

type UserIDParams struct {
	UserID string `json:"userId" validate:"required"`
}

// TagQuestions is a tag with one page of its questions.
type TagQuestions struct {
	Tag *models.Tag `json:"tag"`
	*Page[models.Question]
}

type TagService struct {
	Deps
}

func NewTagService(deps Deps) *TagService {
	return &TagService{Deps: deps.withDefaults()}
}

func (s *TagService) List(ctx context.Context, params ListTagsParams) (*Page[models.Tag], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params.Pagination
	tags, total, err := s.Store.Tags().List(ctx, repositories.TagQuery{Page: toPage(p), Query: p.Query, Filter: p.Filter})
	if err != nil {
		return nil, err
	}
	return newPage(p, tags, total), nil
}

// Top returns the most used tags, served from cache when possible.
func (s *TagService) Top(ctx context.Context) ([]models.Tag, error) {
	return cache.Remember(ctx, s.Cache, s.Logger, cache.KeyTopTags, s.CacheTTL, func() ([]models.Tag, error) {
		return s.Store.Tags().Top(ctx, topTagsLimit)
	})
}

func (s *TagService) Questions(ctx context.Context, params TagQuestionsParams) (*TagQuestions, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	tag, err := s.Store.Tags().GetByID(ctx, p.TagID)
	if err != nil {
		return nil, err
	}
	questions, total, err := s.Store.Questions().List(ctx, repositories.QuestionQuery{
		Page:   toPage(p.Pagination),
		Query:  p.Query,
		Filter: p.Filter,
		TagID:  tag.ID,
	})
	if err != nil {
		return nil, err
	}
	return &TagQuestions{Tag: tag, Page: newPage(p.Pagination, questions, total)}, nil
}

// UserTags rolls up the tags across a user's questions, most used first.
func (s *TagService) UserTags(ctx context.Context, params UserIDParams) ([]repositories.UserTag, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	if _, err := s.Store.Users().GetByID(ctx, res.Params.UserID); err != nil {
		return nil, err
	}
	return s.Store.Tags().TopForAuthor(ctx, res.Params.UserID, userTagsLimit)
}
