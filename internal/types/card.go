package types

import (
	"time"

	"github.com/google/uuid"
)

// Card is one unit of reviewable material. The scheduling fields (EaseFactor,
// Interval, Repetitions, NextReviewAt) are owned by the scheduler package and
// mutated only through CardService.ReviewCard. They are a materialized cache
// of replaying the card's review events from the initial state.
type Card struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SessionID *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`

	Front string `gorm:"type:text;not null;column:front" json:"front"`
	Back  string `gorm:"type:text;not null;column:back" json:"back"`

	EaseFactor   float64   `gorm:"column:ease_factor;not null;default:2.5" json:"ease_factor"`
	Interval     int       `gorm:"column:interval;not null;default:0" json:"interval"`
	Repetitions  int       `gorm:"column:repetitions;not null;default:0" json:"repetitions"`
	NextReviewAt time.Time `gorm:"column:next_review_at;not null;index" json:"next_review_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Card) TableName() string {
	return "card"
}
