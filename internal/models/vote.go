package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionQuestion ActionType = "question"
	ActionAnswer   ActionType = "answer"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Vote records one user's vote on a question or an answer. There is at most
// one row per (AuthorID, ActionID); switching sides updates VoteType.
type Vote struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID   string     `json:"authorId" gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_author_action"`
	ActionID   string     `json:"actionId" gorm:"type:varchar(36);not null;uniqueIndex:idx_vote_author_action;index"`
	ActionType ActionType `json:"actionType" gorm:"type:varchar(20);not null"`
	VoteType   VoteType   `json:"voteType" gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Collection is a question saved by a user. At most one per pair.
type Collection struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID   string    `json:"authorId" gorm:"type:varchar(36);not null;uniqueIndex:idx_collection_author_question"`
	QuestionID string    `json:"questionId" gorm:"type:varchar(36);not null;uniqueIndex:idx_collection_author_question;index"`
	Question   *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (c *Collection) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{}, &Account{}, &Question{}, &Answer{},
		&Tag{}, &TagQuestion{}, &Vote{}, &Collection{},
	}
}
