package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/scheduler"
	"github.com/mindloop/learncoach-backend/internal/types"
)

// CardRepo is the card store contract the scheduling core depends on: keyed
// reads scoped to an owner, upserts of mutated scheduling state, and the
// range queries the due queue and aggregator run on.
type CardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Card) ([]*types.Card, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Card, error)
	// GetByIDForUserLocked takes a row lock so the fetch-advance-persist
	// cycle of a review cannot race a concurrent review of the same card.
	GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Card, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.Card, int64, error)
	ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Card, error)
	ListDueByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) ([]*types.Card, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.Card) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	CountDueByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error)
	CountMasteredByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type cardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCardRepo(db *gorm.DB, baseLog *logger.Logger) CardRepo {
	return &cardRepo{db: db, log: baseLog.With("repo", "CardRepo")}
}

func (r *cardRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Card) ([]*types.Card, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Card{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *cardRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Card, error) {
	return r.getByIDForUser(ctx, tx, id, userID, false)
}

func (r *cardRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Card, error) {
	return r.getByIDForUser(ctx, tx, id, userID, true)
}

func (r *cardRepo) getByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, locked bool) (*types.Card, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx)
	// sqlite has no FOR UPDATE; its single writer serializes the
	// transaction anyway.
	if locked && transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row types.Card
	err := q.Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *cardRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, offset, limit int) ([]*types.Card, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Card{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.Card
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *cardRepo) ListAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Card, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Card
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *cardRepo) ListDueByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) ([]*types.Card, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Card
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND next_review_at <= ?", userID, now).
		Order("next_review_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *cardRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Card) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}

func (r *cardRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Card{}).Error
}

func (r *cardRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	err := transaction.WithContext(ctx).
		Model(&types.Card{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

func (r *cardRepo) CountDueByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	err := transaction.WithContext(ctx).
		Model(&types.Card{}).
		Where("user_id = ? AND next_review_at <= ?", userID, now).
		Count(&total).Error
	return total, err
}

func (r *cardRepo) CountMasteredByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int64
	err := transaction.WithContext(ctx).
		Model(&types.Card{}).
		Where("user_id = ? AND interval > ?", userID, scheduler.MasteredIntervalDays).
		Count(&total).Error
	return total, err
}
