package types

import (
	"time"

	"github.com/google/uuid"
)

// UserStatistics is a per-user rollup maintained incrementally by the session
// and card services, recomputed from scratch when missing.
type UserStatistics struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	TotalSessions   int       `gorm:"column:total_sessions;not null;default:0" json:"total_sessions"`
	AvgScore        float64   `gorm:"column:avg_score;not null;default:0" json:"avg_score"`
	BestScore       float64   `gorm:"column:best_score;not null;default:0" json:"best_score"`
	TotalFlashcards int       `gorm:"column:total_flashcards;not null;default:0" json:"total_flashcards"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (UserStatistics) TableName() string {
	return "user_statistics"
}
