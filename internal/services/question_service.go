package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"querystack/internal/apperror"
	"querystack/internal/cache"
	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

const hotQuestionsLimit = 5

type CreateQuestionParams struct {
	Title   string   `json:"title" validate:"required,min=5,max=130"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags" validate:"required,min=1,max=3,dive,notblank,max=30"`
}

type EditQuestionParams struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Title      string   `json:"title" validate:"required,min=5,max=130"`
	Content    string   `json:"content" validate:"required,min=20"`
	Tags       []string `json:"tags" validate:"required,min=1,max=3,dive,notblank,max=30"`
}

type QuestionIDParams struct {
	QuestionID string `json:"questionId" validate:"required"`
}

type ListQuestionsParams struct {
	validation.Pagination
}

// QuestionService runs the question write operations and reads.
type QuestionService struct {
	Deps
}

func NewQuestionService(deps Deps) *QuestionService {
	return &QuestionService{Deps: deps.withDefaults()}
}

// Create inserts the question, resolves its tags case-insensitively and
// links them, all in one unit of work.
func (s *QuestionService) Create(ctx context.Context, params CreateQuestionParams) (*models.Question, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p, authorID := res.Params, res.Session.UserID

	var question *models.Question
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByID(ctx, authorID); err != nil {
			return err
		}
		q := &models.Question{
			Title:    strings.TrimSpace(p.Title),
			Content:  p.Content,
			AuthorID: authorID,
		}
		if err := tx.Questions().Create(ctx, q); err != nil {
			return err
		}
		tags, err := attachTags(ctx, tx, q.ID, dedupeTags(p.Tags))
		if err != nil {
			return err
		}
		q.Tags = tags
		question = q
		return nil
	})
	if err != nil {
		s.aborted("create question", err, zap.String("author_id", authorID))
		return nil, err
	}

	s.Logger.Info("question created",
		zap.String("question_id", question.ID),
		zap.String("author_id", authorID),
		zap.Int("tags", len(question.Tags)),
	)
	s.committed(ctx, events.New(events.QuestionCreated, authorID, map[string]string{"questionId": question.ID}))
	return question, nil
}

// Edit updates title and content and reconciles the tag set. Only the
// author may edit.
func (s *QuestionService) Edit(ctx context.Context, params EditQuestionParams) (*models.Question, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p, userID := res.Params, res.Session.UserID

	var question *models.Question
	var added, removed int
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		q, err := tx.Questions().GetForUpdate(ctx, p.QuestionID)
		if err != nil {
			return err
		}
		if q.AuthorID != userID {
			return apperror.Forbidden("You are not allowed to edit this question")
		}

		title := strings.TrimSpace(p.Title)
		if q.Title != title || q.Content != p.Content {
			if err := tx.Questions().UpdateContent(ctx, q.ID, title, p.Content); err != nil {
				return err
			}
		}

		current, err := tx.Tags().ForQuestion(ctx, q.ID)
		if err != nil {
			return err
		}
		toAdd, toRemove := tagDelta(current, dedupeTags(p.Tags))
		added, removed = len(toAdd), len(toRemove)

		if _, err := attachTags(ctx, tx, q.ID, toAdd); err != nil {
			return err
		}
		if len(toRemove) > 0 {
			if err := tx.Tags().AdjustCount(ctx, toRemove, -1); err != nil {
				return err
			}
			if err := tx.TagQuestions().DeleteForTags(ctx, q.ID, toRemove); err != nil {
				return err
			}
		}

		question, err = tx.Questions().GetDetailed(ctx, q.ID)
		return err
	})
	if err != nil {
		s.aborted("edit question", err, zap.String("question_id", p.QuestionID), zap.String("user_id", userID))
		return nil, err
	}

	s.Logger.Info("question edited",
		zap.String("question_id", question.ID),
		zap.Int("tags_added", added),
		zap.Int("tags_removed", removed),
	)
	s.committed(ctx, events.New(events.QuestionEdited, userID, map[string]string{"questionId": question.ID}))
	return question, nil
}

// Delete removes the question together with everything that references
// it. Only the author may delete.
func (s *QuestionService) Delete(ctx context.Context, params QuestionIDParams) error {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return err
	}
	id, userID := res.Params.QuestionID, res.Session.UserID

	var answers int
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		q, err := tx.Questions().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.AuthorID != userID {
			return apperror.Forbidden("You are not allowed to delete this question")
		}

		if err := tx.Collections().DeleteByQuestion(ctx, id); err != nil {
			return err
		}

		tags, err := tx.Tags().ForQuestion(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.TagQuestions().DeleteByQuestion(ctx, id); err != nil {
			return err
		}
		if err := tx.Tags().AdjustCount(ctx, tagIDs(tags), -1); err != nil {
			return err
		}

		if err := tx.Votes().DeleteByActions(ctx, models.ActionQuestion, []string{id}); err != nil {
			return err
		}
		answerIDs, err := tx.Answers().IDsByQuestion(ctx, id)
		if err != nil {
			return err
		}
		answers = len(answerIDs)
		if err := tx.Votes().DeleteByActions(ctx, models.ActionAnswer, answerIDs); err != nil {
			return err
		}
		if err := tx.Answers().DeleteByQuestion(ctx, id); err != nil {
			return err
		}

		return tx.Questions().Delete(ctx, id)
	})
	if err != nil {
		s.aborted("delete question", err, zap.String("question_id", id), zap.String("user_id", userID))
		return err
	}

	s.Logger.Info("question deleted", zap.String("question_id", id), zap.Int("answers", answers))
	s.committed(ctx, events.New(events.QuestionDeleted, userID, map[string]string{"questionId": id}))
	return nil
}

// Get returns the question with its author and tags.
func (s *QuestionService) Get(ctx context.Context, params QuestionIDParams) (*models.Question, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	return s.Store.Questions().GetDetailed(ctx, res.Params.QuestionID)
}

// List pages through questions. The recommended filter has no ranking
// source yet and yields an empty page.
func (s *QuestionService) List(ctx context.Context, params ListQuestionsParams) (*Page[models.Question], error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params.Pagination
	if p.Filter == "recommended" {
		return newPage[models.Question](p, nil, 0), nil
	}

	questions, total, err := s.Store.Questions().List(ctx, repositories.QuestionQuery{
		Page:   toPage(p),
		Query:  p.Query,
		Filter: p.Filter,
	})
	if err != nil {
		return nil, err
	}
	return newPage(p, questions, total), nil
}

// Hot returns the most viewed questions, served from cache when possible.
func (s *QuestionService) Hot(ctx context.Context) ([]models.Question, error) {
	return cache.Remember(ctx, s.Cache, s.Logger, cache.KeyHotQuestions, s.CacheTTL, func() ([]models.Question, error) {
		return s.Store.Questions().Hot(ctx, hotQuestionsLimit)
	})
}

// IncrementView adds one view and returns the new total.
func (s *QuestionService) IncrementView(ctx context.Context, params QuestionIDParams) (int, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return 0, err
	}
	id := res.Params.QuestionID

	var views int
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if err := tx.Questions().AdjustCounters(ctx, id, repositories.Counters{repositories.ColViews: 1}); err != nil {
			return err
		}
		q, err := tx.Questions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		views = q.Views
		return nil
	})
	if err != nil {
		return 0, err
	}

	actor := ""
	if res.Session != nil {
		actor = res.Session.UserID
	}
	s.committed(ctx, events.New(events.QuestionViewed, actor, map[string]string{"questionId": id}))
	return views, nil
}

// dedupeTags trims names, drops blanks and collapses names equal ignoring
// case, keeping the first spelling.
func dedupeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := models.NormalizeTagName(name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// attachTags finds or creates each tag, counts the question against it and
// inserts the join rows.
func attachTags(ctx context.Context, tx repositories.Store, questionID string, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags := make([]models.Tag, 0, len(names))
	links := make([]models.TagQuestion, 0, len(names))
	for _, name := range names {
		tag, err := tx.Tags().FindByName(ctx, name)
		switch {
		case err == nil:
			if err := tx.Tags().AdjustCount(ctx, []string{tag.ID}, 1); err != nil {
				return nil, err
			}
			tag.QuestionCount++
		case isNotFound(err):
			tag = &models.Tag{Name: name, QuestionCount: 1}
			if err := tx.Tags().Create(ctx, tag); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		tags = append(tags, *tag)
		links = append(links, models.TagQuestion{QuestionID: questionID, TagID: tag.ID})
	}
	if err := tx.TagQuestions().CreateBatch(ctx, links); err != nil {
		return nil, err
	}
	return tags, nil
}

// tagDelta compares the current tags against the requested names ignoring
// case. It returns the names to add and the ids of tags to remove.
func tagDelta(current []models.Tag, requested []string) (toAdd []string, toRemove []string) {
	have := make(map[string]struct{}, len(current))
	for _, t := range current {
		have[models.NormalizeTagName(t.Name)] = struct{}{}
	}
	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		key := models.NormalizeTagName(name)
		want[key] = struct{}{}
		if _, ok := have[key]; !ok {
			toAdd = append(toAdd, name)
		}
	}
	for _, t := range current {
		if _, ok := want[models.NormalizeTagName(t.Name)]; !ok {
			toRemove = append(toRemove, t.ID)
		}
	}
	return toAdd, toRemove
}

func tagIDs(tags []models.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
