package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a community member. Reputation is stored but not yet mutated by
// any write operation.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Username   string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Bio        string    `json:"bio,omitempty" gorm:"type:text"`
	Image      string    `json:"image,omitempty" gorm:"type:varchar(2048)"`
	Location   string    `json:"location,omitempty" gorm:"type:varchar(100)"`
	Portfolio  string    `json:"portfolio,omitempty" gorm:"type:varchar(2048)"`
	Reputation int       `json:"reputation" gorm:"not null;default:0;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Account binds a login method to a User. Password is only set for the
// "credentials" provider and is never serialized.
type Account struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	Name              string    `json:"name" gorm:"type:varchar(100)"`
	Image             string    `json:"image,omitempty" gorm:"type:varchar(2048)"`
	Provider          string    `json:"provider" gorm:"type:varchar(50);not null;uniqueIndex:idx_account_provider"`
	ProviderAccountID string    `json:"providerAccountId" gorm:"type:varchar(255);not null;uniqueIndex:idx_account_provider"`
	Password          string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
