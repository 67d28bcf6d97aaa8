package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/types"
)

// ReviewEventRepo appends and reads the immutable review log. There is no
// update or single-row delete: events only disappear with their owning card,
// via FullDeleteByCardIDs inside the card deletion transaction.
type ReviewEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ReviewEvent) ([]*types.ReviewEvent, error)
	ListByCard(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) ([]*types.ReviewEvent, error)
	ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.ReviewEvent, error)
	CountByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
	ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReviewEvent, error)
	FullDeleteByCardIDs(ctx context.Context, tx *gorm.DB, cardIDs []uuid.UUID) error
}

type reviewEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewEventRepo(db *gorm.DB, baseLog *logger.Logger) ReviewEventRepo {
	return &reviewEventRepo{db: db, log: baseLog.With("repo", "ReviewEventRepo")}
}

func (r *reviewEventRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ReviewEvent) ([]*types.ReviewEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ReviewEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reviewEventRepo) ListByCard(ctx context.Context, tx *gorm.DB, cardID uuid.UUID) ([]*types.ReviewEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReviewEvent
	if err := transaction.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("reviewed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewEventRepo) ListByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.ReviewEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReviewEvent
	if err := transaction.WithContext(ctx).
		Joins("JOIN card ON card.id = review_event.card_id").
		Where("card.user_id = ? AND review_event.reviewed_at >= ?", userID, since).
		Order("review_event.reviewed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewEventRepo) CountByUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	err := transaction.WithContext(ctx).
		Model(&types.ReviewEvent{}).
		Joins("JOIN card ON card.id = review_event.card_id").
		Where("card.user_id = ? AND review_event.reviewed_at >= ?", userID, since).
		Count(&total).Error
	return total, err
}

func (r *reviewEventRepo) ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReviewEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReviewEvent
	if err := transaction.WithContext(ctx).
		Joins("JOIN card ON card.id = review_event.card_id").
		Where("card.user_id = ?", userID).
		Order("review_event.reviewed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewEventRepo) FullDeleteByCardIDs(ctx context.Context, tx *gorm.DB, cardIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(cardIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("card_id IN ?", cardIDs).
		Delete(&types.ReviewEvent{}).Error
}
