package repositories

import (
	"context"

	"querystack/internal/models"
)

// Store gives access to every repository. A Store obtained inside
// Transaction routes all calls through the same database transaction.
type Store interface {
	Users() UserRepository
	Accounts() AccountRepository
	Questions() QuestionRepository
	Answers() AnswerRepository
	Tags() TagRepository
	TagQuestions() TagQuestionRepository
	Votes() VoteRepository
	Collections() CollectionRepository

	// Transaction runs fn as one unit of work: every mutation made through
	// the Store passed to fn commits together or not at all.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// Page is a 1-based offset page.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Counters maps a counter column to the delta applied to it.
type Counters map[string]int

const (
	ColViews     = "views"
	ColAnswers   = "answers"
	ColUpvotes   = "upvotes"
	ColDownvotes = "downvotes"
)

type UserQuery struct {
	Page
	Query  string
	Filter string
}

type QuestionQuery struct {
	Page
	Query    string
	Filter   string
	AuthorID string
	TagID    string
}

type AnswerQuery struct {
	Page
	Filter     string
	QuestionID string
	AuthorID   string
}

type TagQuery struct {
	Page
	Query  string
	Filter string
}

type SavedQuery struct {
	Page
	AuthorID string
	Query    string
	Filter   string
}

// UserTag is one row of the per-author tag rollup.
type UserTag struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id string, fields map[string]any) (*models.User, error)
	List(ctx context.Context, q UserQuery) ([]models.User, int64, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	// GetForUpdate loads the question and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Question, error)
	// GetDetailed loads the question with its author and tags.
	GetDetailed(ctx context.Context, id string) (*models.Question, error)
	UpdateContent(ctx context.Context, id, title, content string) error
	AdjustCounters(ctx context.Context, id string, deltas Counters) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q QuestionQuery) ([]models.Question, int64, error)
	Hot(ctx context.Context, limit int) ([]models.Question, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id string) (*models.Answer, error)
	GetForUpdate(ctx context.Context, id string) (*models.Answer, error)
	AdjustCounters(ctx context.Context, id string, deltas Counters) error
	Delete(ctx context.Context, id string) error
	IDsByQuestion(ctx context.Context, questionID string) ([]string, error)
	DeleteByQuestion(ctx context.Context, questionID string) error
	List(ctx context.Context, q AnswerQuery) ([]models.Answer, int64, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	CountByQuestion(ctx context.Context, questionID string) (int64, error)
}

type TagRepository interface {
	// FindByName matches ignoring case.
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id string) (*models.Tag, error)
	// AdjustCount adds delta to QuestionCount of every tag in ids, never
	// letting a count drop below zero.
	AdjustCount(ctx context.Context, ids []string, delta int) error
	ForQuestion(ctx context.Context, questionID string) ([]models.Tag, error)
	List(ctx context.Context, q TagQuery) ([]models.Tag, int64, error)
	Top(ctx context.Context, limit int) ([]models.Tag, error)
	TopForAuthor(ctx context.Context, authorID string, limit int) ([]UserTag, error)
}

type TagQuestionRepository interface {
	CreateBatch(ctx context.Context, rows []models.TagQuestion) error
	DeleteByQuestion(ctx context.Context, questionID string) error
	DeleteForTags(ctx context.Context, questionID string, tagIDs []string) error
	CountByTag(ctx context.Context, tagID string) (int64, error)
}

type VoteRepository interface {
	Find(ctx context.Context, authorID, actionID string) (*models.Vote, error)
	Create(ctx context.Context, vote *models.Vote) error
	UpdateType(ctx context.Context, id string, voteType models.VoteType) error
	Delete(ctx context.Context, id string) error
	DeleteByActions(ctx context.Context, actionType models.ActionType, actionIDs []string) error
	Count(ctx context.Context, actionID string, voteType models.VoteType) (int64, error)
}

type CollectionRepository interface {
	Find(ctx context.Context, authorID, questionID string) (*models.Collection, error)
	Create(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id string) error
	DeleteByQuestion(ctx context.Context, questionID string) error
	ListSaved(ctx context.Context, q SavedQuery) ([]models.Collection, int64, error)
	CountByPair(ctx context.Context, authorID, questionID string) (int64, error)
}
