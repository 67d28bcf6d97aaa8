package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/repos"
	"github.com/mindloop/learncoach-backend/internal/types"
)

type StatsOverview struct {
	TotalSessions int     `json:"total_sessions"`
	AvgScore      float64 `json:"avg_score"`
	BestScore     float64 `json:"best_score"`
}

type ChartPoint struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
}

type StatsService interface {
	Overview(ctx context.Context, userID uuid.UUID) (*StatsOverview, error)
	Chart(ctx context.Context, userID uuid.UUID, days int) ([]ChartPoint, error)
}

type statsService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessionRepo   repos.SessionRepo
	userStatsRepo repos.UserStatisticsRepo
}

func NewStatsService(db *gorm.DB, log *logger.Logger, sessionRepo repos.SessionRepo, userStatsRepo repos.UserStatisticsRepo) StatsService {
	return &statsService{
		db:            db,
		log:           log.With("service", "StatsService"),
		sessionRepo:   sessionRepo,
		userStatsRepo: userStatsRepo,
	}
}

// Overview returns the stored rollup, computing and persisting it from the
// session history when no row exists yet.
func (ss *statsService) Overview(ctx context.Context, userID uuid.UUID) (*StatsOverview, error) {
	stats, err := ss.userStatsRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load user statistics: %w", err)
	}
	if stats == nil {
		sessions, sErr := ss.sessionRepo.ListAllByUser(ctx, nil, userID)
		if sErr != nil {
			return nil, fmt.Errorf("Failed to load sessions: %w", sErr)
		}
		stats = rollupFromSessions(userID, sessions)
		if uErr := ss.userStatsRepo.Upsert(ctx, nil, stats); uErr != nil {
			return nil, fmt.Errorf("Failed to persist user statistics: %w", uErr)
		}
	}
	return &StatsOverview{
		TotalSessions: stats.TotalSessions,
		AvgScore:      stats.AvgScore,
		BestScore:     stats.BestScore,
	}, nil
}

func (ss *statsService) Chart(ctx context.Context, userID uuid.UUID, days int) ([]ChartPoint, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	start := time.Now().UTC().AddDate(0, 0, -days)

	sessions, err := ss.sessionRepo.ListByUserSince(ctx, nil, userID, start)
	if err != nil {
		return nil, fmt.Errorf("Failed to load sessions for chart: %w", err)
	}

	type bucket struct {
		count int
		sum   float64
	}
	byDate := make(map[string]*bucket)
	for _, s := range sessions {
		key := s.CreatedAt.UTC().Format("2006-01-02")
		b := byDate[key]
		if b == nil {
			b = &bucket{}
			byDate[key] = b
		}
		b.count++
		b.sum += s.Score
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]ChartPoint, 0, len(dates))
	for _, d := range dates {
		b := byDate[d]
		points = append(points, ChartPoint{
			Date:     d,
			Count:    b.count,
			AvgScore: b.sum / float64(b.count),
		})
	}
	return points, nil
}

func rollupFromSessions(userID uuid.UUID, sessions []*types.LearningSession) *types.UserStatistics {
	stats := &types.UserStatistics{UserID: userID}
	stats.TotalSessions = len(sessions)
	if len(sessions) == 0 {
		return stats
	}
	sum := 0.0
	for _, s := range sessions {
		sum += s.Score
		if s.Score > stats.BestScore {
			stats.BestScore = s.Score
		}
	}
	stats.AvgScore = sum / float64(len(sessions))
	return stats
}
