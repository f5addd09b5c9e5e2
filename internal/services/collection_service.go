package services

import (
	"context"

	"go.uber.org/zap"

	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

type ListSavedParams struct {
	validation.Pagination
}

// SaveStatus reports whether the caller has the question saved.
type SaveStatus struct {
	Saved bool `json:"saved"`
}

// CollectionService manages saved questions.
type CollectionService struct {
	Deps
}

func NewCollectionService(deps Deps) *CollectionService {
	return &CollectionService{Deps: deps.withDefaults()}
}

// Toggle saves the question for the caller, or unsaves it when already saved.
func (s *CollectionService) Toggle(ctx context.Context, params QuestionIDParams) (*SaveStatus, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	questionID, userID := res.Params.QuestionID, res.Session.UserID

	var status SaveStatus
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Questions().GetByID(ctx, questionID); err != nil {
			return err
		}
		existing, err := tx.Collections().Find(ctx, userID, questionID)
		switch {
		case err == nil:
			status.Saved = false
			return tx.Collections().Delete(ctx, existing.ID)
		case isNotFound(err):
			status.Saved = true
			return tx.Collections().Create(ctx, &models.Collection{AuthorID: userID, QuestionID: questionID})
		default:
			return err
		}
	})
	if err != nil {
		s.aborted("toggle save", err, zap.String("question_id", questionID), zap.String("user_id", userID))
		return nil, err
	}

	s.Logger.Info("collection toggled", zap.String("question_id", questionID), zap.Bool("saved", status.Saved))
	saved := "false"
	if status.Saved {
		saved = "true"
	}
	s.committed(ctx, events.New(events.CollectionToggled, userID, map[string]string{
		"questionId": questionID,
		"saved":      saved,
	}))
	return &status, nil
}

func (s *CollectionService) HasSaved(ctx context.Context, params QuestionIDParams) (*SaveStatus, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	n, err := s.Store.Collections().CountByPair(ctx, res.Session.UserID, res.Params.QuestionID)
	if err != nil {
		return nil, err
	}
	return &SaveStatus{Saved: n > 0}, nil
}

// ListSaved pages through the caller's saved questions.
func (s *CollectionService) ListSaved(ctx context.Context, params ListSavedParams) (*Page[models.Collection], error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p := res.Params.Pagination
	saved, total, err := s.Store.Collections().ListSaved(ctx, repositories.SavedQuery{
		Page:     toPage(p),
		AuthorID: res.Session.UserID,
		Query:    p.Query,
		Filter:   p.Filter,
	})
	if err != nil {
		return nil, err
	}
	return newPage(p, saved, total), nil
}
