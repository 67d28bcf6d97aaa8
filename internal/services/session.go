package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/repos"
	"github.com/mindloop/learncoach-backend/internal/types"
)

// SessionInput is one completed learning round: the content studied, the
// generated question, the learner's answer and the evaluation outcome.
type SessionInput struct {
	ContentType     string
	OriginalContent string
	Question        string
	UserAnswer      string
	Feedback        string
	Score           float64
	Provider        string
	Model           string
}

type SessionService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, input SessionInput) (*types.LearningSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*types.LearningSession, int64, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.LearningSession, error)
}

type sessionService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessionRepo   repos.SessionRepo
	userStatsRepo repos.UserStatisticsRepo
}

func NewSessionService(db *gorm.DB, log *logger.Logger, sessionRepo repos.SessionRepo, userStatsRepo repos.UserStatisticsRepo) SessionService {
	return &sessionService{
		db:            db,
		log:           log.With("service", "SessionService"),
		sessionRepo:   sessionRepo,
		userStatsRepo: userStatsRepo,
	}
}

func (ss *sessionService) CreateSession(ctx context.Context, userID uuid.UUID, input SessionInput) (*types.LearningSession, error) {
	var metadata datatypes.JSON
	if input.Provider != "" || input.Model != "" {
		raw, mErr := json.Marshal(map[string]string{
			"provider": input.Provider,
			"model":    input.Model,
		})
		if mErr == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	session := &types.LearningSession{
		ID:              uuid.New(),
		UserID:          userID,
		ContentType:     input.ContentType,
		OriginalContent: input.OriginalContent,
		Question:        input.Question,
		UserAnswer:      input.UserAnswer,
		Feedback:        input.Feedback,
		Score:           input.Score,
		Metadata:        metadata,
	}

	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := ss.sessionRepo.Create(ctx, tx, []*types.LearningSession{session}); cErr != nil {
			return fmt.Errorf("Failed to create session: %w", cErr)
		}

		stats, sErr := ss.userStatsRepo.GetByUserID(ctx, tx, userID)
		if sErr != nil {
			return fmt.Errorf("Failed to load user statistics: %w", sErr)
		}
		if stats == nil {
			stats = &types.UserStatistics{UserID: userID}
		}
		// Incremental rollup: keeps avg/best consistent without a rescan.
		total := float64(stats.TotalSessions)
		stats.AvgScore = (stats.AvgScore*total + input.Score) / (total + 1)
		if input.Score > stats.BestScore {
			stats.BestScore = input.Score
		}
		stats.TotalSessions++
		if uErr := ss.userStatsRepo.Upsert(ctx, tx, stats); uErr != nil {
			return fmt.Errorf("Failed to update user statistics: %w", uErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (ss *sessionService) ListSessions(ctx context.Context, userID uuid.UUID, page, limit int) ([]*types.LearningSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return ss.sessionRepo.ListByUser(ctx, nil, userID, (page-1)*limit, limit)
}

func (ss *sessionService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.LearningSession, error) {
	session, err := ss.sessionRepo.GetByIDForUser(ctx, nil, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
