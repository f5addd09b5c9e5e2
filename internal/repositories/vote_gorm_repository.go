package repositories

import (
	"context"

	"gorm.io/gorm"

	"querystack/internal/models"
)

// GORMVoteRepository is a GORM implementation of VoteRepository.
type GORMVoteRepository struct {
	store *GORMStore
}

func (r *GORMVoteRepository) Find(ctx context.Context, authorID, actionID string) (*models.Vote, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var vote models.Vote
	if err := db.First(&vote, "author_id = ? AND action_id = ?", authorID, actionID).Error; err != nil {
		return nil, wrap(err, "Vote", "find")
	}
	return &vote, nil
}

func (r *GORMVoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(vote).Error; err != nil {
		return wrap(err, "Vote", "create")
	}
	return nil
}

func (r *GORMVoteRepository) UpdateType(ctx context.Context, id string, voteType models.VoteType) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Vote{}).Where("id = ?", id).Update("vote_type", voteType)
	if res.Error != nil {
		return wrap(res.Error, "Vote", "update")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Vote", "update")
	}
	return nil
}

func (r *GORMVoteRepository) Delete(ctx context.Context, id string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Vote{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "Vote", "delete")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Vote", "delete")
	}
	return nil
}

// DeleteByActions removes every vote cast on the given targets.
func (r *GORMVoteRepository) DeleteByActions(ctx context.Context, actionType models.ActionType, actionIDs []string) error {
	if len(actionIDs) == 0 {
		return nil
	}
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Where("action_type = ? AND action_id IN ?", actionType, actionIDs).Delete(&models.Vote{}).Error
	if err != nil {
		return wrap(err, "Vote", "delete")
	}
	return nil
}

func (r *GORMVoteRepository) Count(ctx context.Context, actionID string, voteType models.VoteType) (int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&models.Vote{}).Where("action_id = ? AND vote_type = ?", actionID, voteType).Count(&n).Error
	if err != nil {
		return 0, wrap(err, "Vote", "count")
	}
	return n, nil
}

// GORMCollectionRepository is a GORM implementation of CollectionRepository.
type GORMCollectionRepository struct {
	store *GORMStore
}

func (r *GORMCollectionRepository) Find(ctx context.Context, authorID, questionID string) (*models.Collection, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var c models.Collection
	if err := db.First(&c, "author_id = ? AND question_id = ?", authorID, questionID).Error; err != nil {
		return nil, wrap(err, "Collection", "find")
	}
	return &c, nil
}

func (r *GORMCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit("Question").Create(collection).Error; err != nil {
		return wrap(err, "Collection", "create")
	}
	return nil
}

func (r *GORMCollectionRepository) Delete(ctx context.Context, id string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&models.Collection{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "Collection", "delete")
	}
	if res.RowsAffected == 0 {
		return wrap(errNotFound, "Collection", "delete")
	}
	return nil
}

func (r *GORMCollectionRepository) DeleteByQuestion(ctx context.Context, questionID string) error {
	db, err := r.store.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("question_id = ?", questionID).Delete(&models.Collection{}).Error; err != nil {
		return wrap(err, "Collection", "delete")
	}
	return nil
}

// ListSaved pages through an author's saved questions. Filters:
// mostrecent (default), oldest, mostvoted, mostviewed and mostanswered.
func (r *GORMCollectionRepository) ListSaved(ctx context.Context, q SavedQuery) ([]models.Collection, int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	query := db.Model(&models.Collection{}).
		Joins("JOIN questions ON questions.id = collections.question_id").
		Where("collections.author_id = ?", q.AuthorID)
	if q.Query != "" {
		p := likePattern(q.Query)
		query = query.Where(`(LOWER(questions.title) LIKE ? ESCAPE '\' OR LOWER(questions.content) LIKE ? ESCAPE '\')`, p, p)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "Collection", "count")
	}

	switch q.Filter {
	case "oldest":
		query = query.Order("collections.created_at ASC")
	case "mostvoted":
		query = query.Order("questions.upvotes DESC")
	case "mostviewed":
		query = query.Order("questions.views DESC")
	case "mostanswered":
		query = query.Order("questions.answers DESC")
	default:
		query = query.Order("collections.created_at DESC")
	}
	query = query.Order("collections.id DESC")

	saved := make([]models.Collection, 0)
	err = query.Select("collections.*").
		Preload("Question").Preload("Question.Author", authorColumns).
		Offset(q.Offset()).Limit(q.PageSize).
		Find(&saved).Error
	if err != nil {
		return nil, 0, wrap(err, "Collection", "list")
	}

	questions := make([]models.Question, 0, len(saved))
	for _, c := range saved {
		if c.Question != nil {
			questions = append(questions, *c.Question)
		}
	}
	if err := loadTags(db, questions); err != nil {
		return nil, 0, err
	}
	byID := make(map[string]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}
	for i := range saved {
		if question, ok := byID[saved[i].QuestionID]; ok {
			saved[i].Question = &question
		}
	}
	return saved, total, nil
}

func (r *GORMCollectionRepository) CountByPair(ctx context.Context, authorID, questionID string) (int64, error) {
	db, err := r.store.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&models.Collection{}).Where("author_id = ? AND question_id = ?", authorID, questionID).Count(&n).Error
	if err != nil {
		return 0, wrap(err, "Collection", "count")
	}
	return n, nil
}
