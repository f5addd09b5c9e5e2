package services

import (
	"context"

	"go.uber.org/zap"

	"querystack/internal/apperror"
	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

type CreateAnswerParams struct {
	QuestionID string `json:"questionId" validate:"required"`
	Content    string `json:"content" validate:"required,min=100"`
}

type AnswerIDParams struct {
	AnswerID string `json:"answerId" validate:"required"`
}

type ListAnswersParams struct {
	validation.Pagination
	QuestionID string `json:"questionId" validate:"required"`
}

// AnswerService keeps Question.Answers in step with the answers table.
type AnswerService struct {
	Deps
}

func NewAnswerService(deps Deps) *AnswerService {
	return &AnswerService{Deps: deps.withDefaults()}
}

// Create inserts the answer and increments the question's answer count.
func (s *AnswerService) Create(ctx context.Context, params CreateAnswerParams) (*models.Answer, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p, authorID := res.Params, res.Session.UserID

	var answer *models.Answer
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByID(ctx, authorID); err != nil {
			return err
		}
		q, err := tx.Questions().GetForUpdate(ctx, p.QuestionID)
		if err != nil {
			return err
		}
		a := &models.Answer{Content: p.Content, AuthorID: authorID, QuestionID: q.ID}
		if err := tx.Answers().Create(ctx, a); err != nil {
			return err
		}
		if err := tx.Questions().AdjustCounters(ctx, q.ID, repositories.Counters{repositories.ColAnswers: 1}); err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		s.aborted("create answer", err, zap.String("question_id", p.QuestionID), zap.String("author_id", authorID))
		return nil, err
	}

	s.Logger.Info("answer created", zap.String("answer_id", answer.ID), zap.String("question_id", answer.QuestionID))
	s.committed(ctx, events.New(events.AnswerCreated, authorID, map[string]string{
		"answerId":   answer.ID,
		"questionId": answer.QuestionID,
	}))
	return answer, nil
}

// Delete removes the answer and its votes and decrements the question's
// answer count. Only the author may delete.
func (s *AnswerService) Delete(ctx context.Context, params AnswerIDParams) error {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return err
	}
	id, userID := res.Params.AnswerID, res.Session.UserID

	var questionID string
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		a, err := tx.Answers().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.AuthorID != userID {
			return apperror.Forbidden("You are not allowed to delete this answer")
		}
		questionID = a.QuestionID

		if _, err := tx.Questions().GetForUpdate(ctx, a.QuestionID); err != nil {
			return err
		}
		if err := tx.Questions().AdjustCounters(ctx, a.QuestionID, repositories.Counters{repositories.ColAnswers: -1}); err != nil {
			return err
		}
		if err := tx.Votes().DeleteByActions(ctx, models.ActionAnswer, []string{a.ID}); err != nil {
			return err
		}
		return tx.Answers().Delete(ctx, a.ID)
	})
	if err != nil {
		s.aborted("delete answer", err, zap.String("answer_id", id), zap.String("user_id", userID))
		return err
	}

	s.Logger.Info("answer deleted", zap.String("answer_id", id), zap.String("question_id", questionID))
	s.committed(ctx, events.New(events.AnswerDeleted, userID, map[string]string{
		"answerId":   id,
		"questionId": questionID,
	}))
	return nil
}

// List pages through the answers of a question.
func (s *AnswerService) List(ctx context.Context, params ListAnswersParams) (*Page[models.Answer], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	if _, err := s.Store.Questions().GetByID(ctx, p.QuestionID); err != nil {
		return nil, err
	}
	answers, total, err := s.Store.Answers().List(ctx, repositories.AnswerQuery{
		Page:       toPage(p.Pagination),
		Filter:     p.Filter,
		QuestionID: p.QuestionID,
	})
	if err != nil {
		return nil, err
	}
	return newPage(p.Pagination, answers, total), nil
}
