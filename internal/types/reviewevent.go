package types

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEvent is an append-only log record of one accepted review submission.
// Rows are never updated and are removed only by the owning card's cascade.
type ReviewEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CardID     uuid.UUID `gorm:"type:uuid;not null;index" json:"card_id"`
	Card       *Card     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CardID;references:ID" json:"card,omitempty"`
	Quality    int       `gorm:"column:quality;not null" json:"quality"`
	TimeSpent  int       `gorm:"column:time_spent;not null;default:0" json:"time_spent"`
	ReviewedAt time.Time `gorm:"column:reviewed_at;not null;index" json:"reviewed_at"`
}

func (ReviewEvent) TableName() string {
	return "review_event"
}
