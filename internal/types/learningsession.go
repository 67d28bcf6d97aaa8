package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LearningSession struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentType     string         `gorm:"column:content_type;not null" json:"content_type"`
	OriginalContent string         `gorm:"type:text;column:original_content" json:"original_content"`
	Question        string         `gorm:"type:text;column:question" json:"question"`
	UserAnswer      string         `gorm:"type:text;column:user_answer" json:"user_answer"`
	Feedback        string         `gorm:"type:text;column:feedback" json:"feedback"`
	Score           float64        `gorm:"column:score;not null;default:0" json:"score"`
	Metadata        datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (LearningSession) TableName() string {
	return "learning_session"
}
