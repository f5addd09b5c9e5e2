package repositories

import (
	"context"

	"gorm.io/gorm"

	"querystack/internal/models"
)

// GORMTagRepository is a GORM implementation of TagRepository.
type GORMTagRepository struct {
	store *GORMStore
}

func (r *GORMTagRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var tag models.Tag
	if err := db.First(&tag, "normalized_name = ?", models.NormalizeTagName(name)).Error; err != nil {
		return nil, wrap(err, "Tag", "find")
	}
	return &tag, nil
}

func (r *GORMTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(tag).Error; err != nil {
		return wrap(err, "Tag", "create")
	}
	return nil
}

func (r *GORMTagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var tag models.Tag
	if err := db.First(&tag, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "Tag", "get")
	}
	return &tag, nil
}

func (r *GORMTagRepository) AdjustCount(ctx context.Context, ids []string, delta int) error {
	updates := adjustExprs(Counters{"question_count": delta})
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Model(&models.Tag{}).Where("id IN ?", ids).UpdateColumns(updates).Error; err != nil {
		return wrap(err, "Tag", "adjust count of")
	}
	return nil
}

func (r *GORMTagRepository) ForQuestion(ctx context.Context, questionID string) ([]models.Tag, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0)
	err = db.Joins("JOIN tag_questions ON tag_questions.tag_id = tags.id").
		Where("tag_questions.question_id = ?", questionID).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, wrap(err, "Tag", "list")
	}
	return tags, nil
}

// List pages through tags. Filters: popular (default), recent, oldest
// and name.
func (r *GORMTagRepository) List(ctx context.Context, q TagQuery) ([]models.Tag, int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.Tag{})
	if q.Query != "" {
		query = query.Where(`normalized_name LIKE ? ESCAPE '\'`, likePattern(q.Query))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "Tag", "count")
	}

	switch q.Filter {
	case "recent":
		query = query.Order("created_at DESC").Order("id DESC")
	case "oldest":
		query = query.Order("created_at ASC").Order("id ASC")
	case "name":
		query = query.Order("normalized_name ASC")
	default:
		query = query.Order("question_count DESC").Order("normalized_name ASC")
	}

	tags := make([]models.Tag, 0)
	if err := query.Offset(q.Offset()).Limit(q.PageSize).Find(&tags).Error; err != nil {
		return nil, 0, wrap(err, "Tag", "list")
	}
	return tags, total, nil
}

// Top returns the tags used by the most questions.
func (r *GORMTagRepository) Top(ctx context.Context, limit int) ([]models.Tag, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, limit)
	err = db.Where("question_count > 0").
		Order("question_count DESC").Order("normalized_name ASC").
		Limit(limit).Find(&tags).Error
	if err != nil {
		return nil, wrap(err, "Tag", "list top")
	}
	return tags, nil
}

// TopForAuthor counts how many of the author's questions carry each tag.
func (r *GORMTagRepository) TopForAuthor(ctx context.Context, authorID string, limit int) ([]UserTag, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]UserTag, 0, limit)
	err = db.Table("tag_questions").
		Select("tags.id AS id, tags.name AS name, COUNT(*) AS question_count").
		Joins("JOIN tags ON tags.id = tag_questions.tag_id").
		Joins("JOIN questions ON questions.id = tag_questions.question_id").
		Where("questions.author_id = ?", authorID).
		Group("tags.id, tags.name").
		Order("question_count DESC").Order("tags.name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, wrap(err, "Tag", "roll up")
	}
	return rows, nil
}

// GORMTagQuestionRepository is a GORM implementation of TagQuestionRepository.
type GORMTagQuestionRepository struct {
	store *GORMStore
}

func (r *GORMTagQuestionRepository) CreateBatch(ctx context.Context, rows []models.TagQuestion) error {
	if len(rows) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(&rows).Error; err != nil {
		return wrap(err, "Tag link", "create")
	}
	return nil
}

func (r *GORMTagQuestionRepository) DeleteByQuestion(ctx context.Context, questionID string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("question_id = ?", questionID).Delete(&models.TagQuestion{}).Error; err != nil {
		return wrap(err, "Tag link", "delete")
	}
	return nil
}

func (r *GORMTagQuestionRepository) DeleteForTags(ctx context.Context, questionID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Where("question_id = ? AND tag_id IN ?", questionID, tagIDs).Delete(&models.TagQuestion{}).Error
	if err != nil {
		return wrap(err, "Tag link", "delete")
	}
	return nil
}

func (r *GORMTagQuestionRepository) CountByTag(ctx context.Context, tagID string) (int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&models.TagQuestion{}).Where("tag_id = ?", tagID).Count(&n).Error; err != nil {
		return 0, wrap(err, "Tag link", "count")
	}
	return n, nil
}
