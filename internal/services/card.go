package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/normalization"
	"github.com/mindloop/learncoach-backend/internal/repos"
	"github.com/mindloop/learncoach-backend/internal/scheduler"
	"github.com/mindloop/learncoach-backend/internal/types"
)

// ReviewResult is what a review submission returns to the API layer.
type ReviewResult struct {
	Card           *types.Card `json:"card"`
	NextReviewDate time.Time   `json:"next_review_date"`
	Interval       int         `json:"interval"`
	Message        string      `json:"message"`
}

// CardStats mirrors the flashcard stats payload: pure reductions over the
// user's card and review populations. MasteryRate is a percentage rounded to
// one decimal, matching the API contract.
type CardStats struct {
	TotalCards    int     `json:"total_cards"`
	DueToday      int     `json:"due_today"`
	ReviewsToday  int     `json:"reviews_today"`
	ReviewsWeek   int     `json:"reviews_week"`
	MasteredCards int     `json:"mastered_cards"`
	MasteryRate   float64 `json:"mastery_rate"`
	AvgQuality    float64 `json:"avg_quality"`
}

type CardService interface {
	CreateCard(ctx context.Context, userID uuid.UUID, front, back string, sessionID *uuid.UUID) (*types.Card, error)
	CreateFromSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.Card, error)
	ListCards(ctx context.Context, userID uuid.UUID, page, limit int) ([]*types.Card, int64, error)
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*types.Card, error)
	DueCards(ctx context.Context, userID uuid.UUID, now time.Time) ([]*types.Card, error)
	ReviewCard(ctx context.Context, userID, cardID uuid.UUID, quality, timeSpent int, now time.Time) (*ReviewResult, error)
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
	CardStats(ctx context.Context, userID uuid.UUID, now time.Time) (*CardStats, error)
}

type cardService struct {
	db              *gorm.DB
	log             *logger.Logger
	cardRepo        repos.CardRepo
	reviewEventRepo repos.ReviewEventRepo
	sessionRepo     repos.SessionRepo
	userStatsRepo   repos.UserStatisticsRepo
}

func NewCardService(
	db *gorm.DB,
	log *logger.Logger,
	cardRepo repos.CardRepo,
	reviewEventRepo repos.ReviewEventRepo,
	sessionRepo repos.SessionRepo,
	userStatsRepo repos.UserStatisticsRepo,
) CardService {
	return &cardService{
		db:              db,
		log:             log.With("service", "CardService"),
		cardRepo:        cardRepo,
		reviewEventRepo: reviewEventRepo,
		sessionRepo:     sessionRepo,
		userStatsRepo:   userStatsRepo,
	}
}

func (cs *cardService) CreateCard(ctx context.Context, userID uuid.UUID, front, back string, sessionID *uuid.UUID) (*types.Card, error) {
	front = normalization.TrimInputString(front)
	back = normalization.TrimInputString(back)
	if front == "" || back == "" {
		return nil, fmt.Errorf("Card front and back are both required")
	}

	now := time.Now().UTC()
	state := scheduler.NewState(now)
	card := &types.Card{
		ID:           uuid.New(),
		UserID:       userID,
		SessionID:    sessionID,
		Front:        front,
		Back:         back,
		EaseFactor:   state.EaseFactor,
		Interval:     state.Interval,
		Repetitions:  state.Repetitions,
		NextReviewAt: state.NextReviewAt,
	}

	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := cs.cardRepo.Create(ctx, tx, []*types.Card{card}); cErr != nil {
			return fmt.Errorf("Failed to create card: %w", cErr)
		}
		return cs.bumpFlashcardCount(ctx, tx, userID, 1)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (cs *cardService) CreateFromSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.Card, error) {
	session, err := cs.sessionRepo.GetByIDForUser(ctx, nil, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	front := "Question: " + truncate(session.Question, 100)
	back := "Key concept: " + truncate(session.OriginalContent, 200)
	return cs.CreateCard(ctx, userID, front, back, &session.ID)
}

func (cs *cardService) ListCards(ctx context.Context, userID uuid.UUID, page, limit int) ([]*types.Card, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return cs.cardRepo.ListByUser(ctx, nil, userID, (page-1)*limit, limit)
}

func (cs *cardService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*types.Card, error) {
	card, err := cs.cardRepo.GetByIDForUser(ctx, nil, cardID, userID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load card: %w", err)
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

func (cs *cardService) DueCards(ctx context.Context, userID uuid.UUID, now time.Time) ([]*types.Card, error) {
	cards, err := cs.cardRepo.ListDueByUser(ctx, nil, userID, now)
	if err != nil {
		return nil, fmt.Errorf("Failed to load due cards: %w", err)
	}
	// The repo query already filters; the selector re-applies ordering so
	// due-queue semantics do not depend on the store's collation.
	return scheduler.Due(cards, now), nil
}

// ReviewCard runs the fetch-advance-persist cycle inside one transaction with
// the card row locked, so concurrent reviews of the same card serialize
// instead of losing updates.
func (cs *cardService) ReviewCard(ctx context.Context, userID, cardID uuid.UUID, quality, timeSpent int, now time.Time) (*ReviewResult, error) {
	var result *ReviewResult
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, gErr := cs.cardRepo.GetByIDForUserLocked(ctx, tx, cardID, userID)
		if gErr != nil {
			return fmt.Errorf("Failed to load card for review: %w", gErr)
		}
		if card == nil {
			return ErrCardNotFound
		}

		state := scheduler.State{
			EaseFactor:   card.EaseFactor,
			Interval:     card.Interval,
			Repetitions:  card.Repetitions,
			NextReviewAt: card.NextReviewAt,
		}
		next, aErr := scheduler.Advance(state, quality, now)
		if aErr != nil {
			return aErr
		}

		card.EaseFactor = next.EaseFactor
		card.Interval = next.Interval
		card.Repetitions = next.Repetitions
		card.NextReviewAt = next.NextReviewAt
		card.UpdatedAt = now
		if uErr := cs.cardRepo.Update(ctx, tx, card); uErr != nil {
			return fmt.Errorf("Failed to persist card state: %w", uErr)
		}

		event := &types.ReviewEvent{
			ID:         uuid.New(),
			CardID:     card.ID,
			Quality:    quality,
			TimeSpent:  timeSpent,
			ReviewedAt: now,
		}
		if _, eErr := cs.reviewEventRepo.Create(ctx, tx, []*types.ReviewEvent{event}); eErr != nil {
			return fmt.Errorf("Failed to append review event: %w", eErr)
		}

		result = &ReviewResult{
			Card:           card,
			NextReviewDate: card.NextReviewAt,
			Interval:       card.Interval,
			Message:        scheduler.Feedback(quality),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (cs *cardService) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, gErr := cs.cardRepo.GetByIDForUser(ctx, tx, cardID, userID)
		if gErr != nil {
			return fmt.Errorf("Failed to load card: %w", gErr)
		}
		if card == nil {
			return ErrCardNotFound
		}
		// Review events live and die with their card. The delete is
		// explicit rather than left to the FK cascade so the invariant
		// holds on schemas migrated before the cascade existed.
		if dErr := cs.reviewEventRepo.FullDeleteByCardIDs(ctx, tx, []uuid.UUID{card.ID}); dErr != nil {
			return fmt.Errorf("Failed to delete card review events: %w", dErr)
		}
		if dErr := cs.cardRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{card.ID}); dErr != nil {
			return fmt.Errorf("Failed to delete card: %w", dErr)
		}
		return cs.bumpFlashcardCount(ctx, tx, userID, -1)
	})
}

func (cs *cardService) CardStats(ctx context.Context, userID uuid.UUID, now time.Time) (*CardStats, error) {
	var (
		cards  []*types.Card
		events []*types.ReviewEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = cs.cardRepo.ListAllByUser(gctx, nil, userID)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = cs.reviewEventRepo.ListAllByUser(gctx, nil, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Failed to load card statistics inputs: %w", err)
	}

	summary := scheduler.Summarize(cards, now)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)

	return &CardStats{
		TotalCards:    summary.TotalCards,
		DueToday:      summary.DueNow,
		ReviewsToday:  scheduler.ReviewsSince(events, todayStart),
		ReviewsWeek:   scheduler.ReviewsSince(events, weekStart),
		MasteredCards: summary.MasteredCards,
		MasteryRate:   roundOneDecimal(summary.MasteryRate * 100),
		AvgQuality:    roundOneDecimal(scheduler.AvgQuality(events)),
	}, nil
}

func (cs *cardService) bumpFlashcardCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) error {
	stats, err := cs.userStatsRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("Failed to load user statistics: %w", err)
	}
	if stats == nil {
		stats = &types.UserStatistics{UserID: userID}
	}
	stats.TotalFlashcards += delta
	if stats.TotalFlashcards < 0 {
		stats.TotalFlashcards = 0
	}
	if err := cs.userStatsRepo.Upsert(ctx, tx, stats); err != nil {
		return fmt.Errorf("Failed to update user statistics: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
