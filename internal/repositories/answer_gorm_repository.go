package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"querystack/internal/models"
)

// GORMAnswerRepository is a GORM implementation of AnswerRepository.
type GORMAnswerRepository struct {
	store *GORMStore
}

func (r *GORMAnswerRepository) Create(ctx context.Context, answer *models.Answer) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Create(answer).Error; err != nil {
		return wrap(err, "Answer", "create")
	}
	return nil
}

func (r *GORMAnswerRepository) GetByID(ctx context.Context, id string) (*models.Answer, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var a models.Answer
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Answer", "get")
	}
	return &a, nil
}

func (r *GORMAnswerRepository) GetForUpdate(ctx context.Context, id string) (*models.Answer, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var a models.Answer
	if err := forUpdate(db).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Answer", "lock")
	}
	return &a, nil
}

func (r *GORMAnswerRepository) AdjustCounters(ctx context.Context, id string, deltas Counters) error {
	updates := adjustExprs(deltas)
	if len(updates) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Answer{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return wrap(res.Error, "Answer", "adjust counters of")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Answer", "adjust counters of")
	}
	return nil
}

func (r *GORMAnswerRepository) Delete(ctx context.Context, id string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Answer{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "Answer", "delete")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Answer", "delete")
	}
	return nil
}

func (r *GORMAnswerRepository) IDsByQuestion(ctx context.Context, questionID string) ([]string, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	if err := db.Model(&models.Answer{}).Where("question_id = ?", questionID).Pluck("id", &ids).Error; err != nil {
		return nil, wrap(err, "Answer", "list ids of")
	}
	return ids, nil
}

func (r *GORMAnswerRepository) DeleteByQuestion(ctx context.Context, questionID string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("question_id = ?", questionID).Delete(&models.Answer{}).Error; err != nil {
		return wrap(err, "Answer", "delete")
	}
	return nil
}

// List pages through answers of a question or of an author. Filters:
// latest (default), oldest and popular.
func (r *GORMAnswerRepository) List(ctx context.Context, q AnswerQuery) ([]models.Answer, int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.Answer{})
	if q.QuestionID != "" {
		query = query.Where("question_id = ?", q.QuestionID)
	}
	if q.AuthorID != "" {
		query = query.Where("author_id = ?", q.AuthorID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "Answer", "count")
	}

	switch q.Filter {
	case "oldest":
		query = query.Order("created_at ASC").Order("id ASC")
	case "popular":
		query = query.Order("upvotes DESC").Order("created_at DESC").Order("id DESC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	if q.AuthorID != "" {
		query = query.Preload("Question", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		})
	}

	answers := make([]models.Answer, 0)
	err = query.Preload("Author", authorColumns).
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&answers).Error
	if err != nil {
		return nil, 0, wrap(err, "Answer", "list")
	}
	return answers, total, nil
}

func (r *GORMAnswerRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	return r.count(ctx, "author_id = ?", authorID)
}

func (r *GORMAnswerRepository) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	return r.count(ctx, "question_id = ?", questionID)
}

func (r *GORMAnswerRepository) count(ctx context.Context, cond string, arg any) (int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&models.Answer{}).Where(cond, arg).Count(&n).Error; err != nil {
		return 0, wrap(err, "Answer", "count")
	}
	return n, nil
}
