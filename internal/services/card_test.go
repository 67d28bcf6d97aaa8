package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/config"
	"github.com/mindloop/learncoach-backend/internal/db"
	"github.com/mindloop/learncoach-backend/internal/repos"
	"github.com/mindloop/learncoach-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	svc, err := db.NewDatabaseService(cfg, testLogger(t))
	if err != nil {
		t.Fatalf("NewDatabaseService: %v", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	return svc.DB()
}

func createTestUser(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Email:    "learner@example.com",
		Password: "hashed",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestCardService(t *testing.T, gdb *gorm.DB) CardService {
	t.Helper()
	log := testLogger(t)
	return NewCardService(
		gdb,
		log,
		repos.NewCardRepo(gdb, log),
		repos.NewReviewEventRepo(gdb, log),
		repos.NewSessionRepo(gdb, log),
		repos.NewUserStatisticsRepo(gdb, log),
	)
}

func TestDeleteCardRemovesReviewEvents(t *testing.T) {
	gdb := newTestDB(t)
	user := createTestUser(t, gdb)
	svc := newTestCardService(t, gdb)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, user.ID, "What is recall?", "Retrieving from memory.", nil)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if _, err := svc.ReviewCard(ctx, user.ID, card.ID, 5, 3, time.Now()); err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}
	if _, err := svc.ReviewCard(ctx, user.ID, card.ID, 4, 2, time.Now()); err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}

	var events int64
	if err := gdb.Model(&types.ReviewEvent{}).Where("card_id = ?", card.ID).Count(&events).Error; err != nil {
		t.Fatalf("count review events: %v", err)
	}
	if events != 2 {
		t.Fatalf("review events before delete = %d, want 2", events)
	}

	if err := svc.DeleteCard(ctx, user.ID, card.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}

	if err := gdb.Model(&types.ReviewEvent{}).Where("card_id = ?", card.ID).Count(&events).Error; err != nil {
		t.Fatalf("count review events: %v", err)
	}
	if events != 0 {
		t.Fatalf("review events after delete = %d, want 0", events)
	}
	if _, err := svc.GetCard(ctx, user.ID, card.ID); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("GetCard after delete: err = %v, want ErrCardNotFound", err)
	}
}

func TestReviewCardPersistsStateAndEvent(t *testing.T) {
	gdb := newTestDB(t)
	user := createTestUser(t, gdb)
	svc := newTestCardService(t, gdb)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, user.ID, "front", "back", nil)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	result, err := svc.ReviewCard(ctx, user.ID, card.ID, 5, 4, time.Now())
	if err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}
	if result.Interval != 1 {
		t.Fatalf("first successful interval = %d, want 1", result.Interval)
	}

	stored, err := svc.GetCard(ctx, user.ID, card.ID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if stored.Repetitions != 1 || stored.Interval != 1 {
		t.Fatalf("stored state = reps %d interval %d, want 1/1", stored.Repetitions, stored.Interval)
	}
}

func TestReviewCardForeignCardNotFound(t *testing.T) {
	gdb := newTestDB(t)
	owner := createTestUser(t, gdb)
	svc := newTestCardService(t, gdb)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, owner.ID, "front", "back", nil)
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	other := &types.User{ID: uuid.New(), Email: "other@example.com", Password: "hashed"}
	if err := gdb.Create(other).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.ReviewCard(ctx, other.ID, card.ID, 5, 1, time.Now()); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("foreign review: err = %v, want ErrCardNotFound", err)
	}
}
