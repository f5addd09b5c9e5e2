package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"querystack/internal/models"
)

// GORMQuestionRepository is a GORM implementation of QuestionRepository.
type GORMQuestionRepository struct {
	store *GORMStore
}

func authorColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "username", "image")
}

// Create inserts the question row only; tags are attached separately.
func (r *GORMQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Create(question).Error; err != nil {
		return wrap(err, "Question", "create")
	}
	return nil
}

func (r *GORMQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := db.First(&q, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Question", "get")
	}
	return &q, nil
}

func (r *GORMQuestionRepository) GetForUpdate(ctx context.Context, id string) (*models.Question, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := forUpdate(db).First(&q, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Question", "lock")
	}
	return &q, nil
}

func (r *GORMQuestionRepository) GetDetailed(ctx context.Context, id string) (*models.Question, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var q models.Question
	if err := db.Preload("Author", authorColumns).First(&q, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Question", "get")
	}
	questions := []models.Question{q}
	if err := loadTags(db, questions); err != nil {
		return nil, err
	}
	return &questions[0], nil
}

func (r *GORMQuestionRepository) UpdateContent(ctx context.Context, id, title, content string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Question{}).Where("id = ?", id).
		Updates(map[string]any{"title": title, "content": content})
	if res.Error != nil {
		return wrap(res.Error, "Question", "update")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Question", "update")
	}
	return nil
}

// AdjustCounters applies deltas to the question's counters atomically.
func (r *GORMQuestionRepository) AdjustCounters(ctx context.Context, id string, deltas Counters) error {
	updates := adjustExprs(deltas)
	if len(updates) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Question{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return wrap(res.Error, "Question", "adjust counters of")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Question", "adjust counters of")
	}
	return nil
}

func (r *GORMQuestionRepository) Delete(ctx context.Context, id string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Question{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "Question", "delete")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Question", "delete")
	}
	return nil
}

// List pages through questions. Filters: newest (default), unanswered and
// popular; popular ties are broken by recency then id.
func (r *GORMQuestionRepository) List(ctx context.Context, q QuestionQuery) ([]models.Question, int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.Question{})
	if q.Query != "" {
		p := likePattern(q.Query)
		query = query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, p, p)
	}
	if q.AuthorID != "" {
		query = query.Where("author_id = ?", q.AuthorID)
	}
	if q.TagID != "" {
		query = query.Where("id IN (?)", db.Model(&models.TagQuestion{}).Select("question_id").Where("tag_id = ?", q.TagID))
	}
	if q.Filter == "unanswered" {
		query = query.Where("answers = 0")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "Question", "count")
	}

	switch q.Filter {
	case "popular":
		query = query.Order("upvotes DESC").Order("created_at DESC").Order("id DESC")
	case "oldest":
		query = query.Order("created_at ASC").Order("id ASC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	questions := make([]models.Question, 0)
	err = query.Preload("Author", authorColumns).
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&questions).Error
	if err != nil {
		return nil, 0, wrap(err, "Question", "list")
	}
	if err := loadTags(db, questions); err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Hot returns the most viewed questions, ties broken by upvotes.
func (r *GORMQuestionRepository) Hot(ctx context.Context, limit int) ([]models.Question, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, limit)
	err = db.Order("views DESC").Order("upvotes DESC").Order("created_at DESC").
		Limit(limit).Find(&questions).Error
	if err != nil {
		return nil, wrap(err, "Question", "list hot")
	}
	return questions, nil
}

func (r *GORMQuestionRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&models.Question{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, wrap(err, "Question", "count")
	}
	return n, nil
}

type questionTag struct {
	models.Tag
	QuestionID string
}

// loadTags fills Tags on every question in place with one query.
func loadTags(db *gorm.DB, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]string, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
		questions[i].Tags = make([]models.Tag, 0)
	}

	var rows []questionTag
	err := db.Table("tags").
		Select("tags.*, tag_questions.question_id").
		Joins("JOIN tag_questions ON tag_questions.tag_id = tags.id").
		Where("tag_questions.question_id IN ?", ids).
		Order("tag_questions.created_at ASC").Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return wrap(err, "Tag", "load")
	}

	byQuestion := make(map[string][]models.Tag, len(questions))
	for _, row := range rows {
		byQuestion[row.QuestionID] = append(byQuestion[row.QuestionID], row.Tag)
	}
	for i := range questions {
		if tags, ok := byQuestion[questions[i].ID]; ok {
			questions[i].Tags = tags
		}
	}
	return nil
}
