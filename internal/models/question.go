package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question is a post asking the community something. Answers, Upvotes and
// Downvotes are denormalized counters kept in step with the answers and
// votes tables inside the same transaction that changes them.
type Question struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(130);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(36);not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Tags      []Tag     `json:"tags" gorm:"-"`
	Views     int       `json:"views" gorm:"not null;default:0"`
	Answers   int       `json:"answers" gorm:"not null;default:0;index"`
	Upvotes   int       `json:"upvotes" gorm:"not null;default:0;index"`
	Downvotes int       `json:"downvotes" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Answer belongs to a Question; its existence is mirrored by Question.Answers.
type Answer struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	AuthorID   string    `json:"authorId" gorm:"type:varchar(36);not null;index"`
	Author     *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	QuestionID string    `json:"questionId" gorm:"type:varchar(36);not null;index"`
	Question   *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Upvotes    int       `json:"upvotes" gorm:"not null;default:0"`
	Downvotes  int       `json:"downvotes" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Tag names are unique ignoring case; NormalizedName carries the unique index
// while Name keeps the spelling of whoever created the tag first.
// QuestionCount mirrors the number of tag_questions rows for the tag.
type Tag struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"type:varchar(50);not null"`
	NormalizedName string    `json:"-" gorm:"type:varchar(50);not null;uniqueIndex"`
	QuestionCount  int       `json:"questionCount" gorm:"not null;default:0;index"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TagQuestion is the join row between a question and one of its tags.
type TagQuestion struct {
	QuestionID string    `json:"questionId" gorm:"primaryKey;type:varchar(36)"`
	TagID      string    `json:"tagId" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NormalizeTagName is the case-insensitive key used to match tags.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

func (a *Answer) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.Name = strings.TrimSpace(t.Name)
	t.NormalizedName = NormalizeTagName(t.Name)
	return nil
}
