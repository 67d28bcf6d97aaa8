package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/types"
)

type UserStatisticsRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.UserStatistics) error
}

type userStatisticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStatisticsRepo(db *gorm.DB, baseLog *logger.Logger) UserStatisticsRepo {
	return &userStatisticsRepo{db: db, log: baseLog.With("repo", "UserStatisticsRepo")}
}

func (r *userStatisticsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStatistics, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.UserStatistics
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *userStatisticsRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserStatistics) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("user_id = ?", row.UserID).
		Assign(map[string]interface{}{
			"total_sessions":   row.TotalSessions,
			"avg_score":        row.AvgScore,
			"best_score":       row.BestScore,
			"total_flashcards": row.TotalFlashcards,
		}).
		FirstOrCreate(row).Error
}
