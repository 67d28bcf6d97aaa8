package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mindloop/learncoach-backend/internal/repos"
	"github.com/mindloop/learncoach-backend/internal/types"
)

type recordingAvatarService struct {
	calls int
}

func (s *recordingAvatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
	s.calls++
	user.AvatarBucketKey = "avatars/" + user.ID.String() + ".png"
	user.AvatarURL = "/media/avatars/" + user.ID.String() + ".png"
	return nil
}

func newTestAuthService(t *testing.T, gdb *gorm.DB, avatar AvatarService) AuthService {
	t.Helper()
	log := testLogger(t)
	return NewAuthService(
		gdb,
		log,
		repos.NewUserRepo(gdb, log),
		repos.NewUserTokenRepo(gdb, log),
		avatar,
		"test-secret",
		time.Hour,
		24*time.Hour,
	)
}

func TestRegisterUserRendersAvatarAfterCommit(t *testing.T) {
	gdb := newTestDB(t)
	avatar := &recordingAvatarService{}
	svc := newTestAuthService(t, gdb, avatar)

	user := &types.User{Email: "new@example.com", Password: "secret", DisplayName: "New Learner"}
	access, refresh, err := svc.RegisterUser(context.Background(), user)
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected tokens from registration")
	}
	if avatar.calls != 1 {
		t.Fatalf("avatar renders = %d, want 1", avatar.calls)
	}

	var stored types.User
	if err := gdb.Where("id = ?", user.ID).First(&stored).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.AvatarURL == "" {
		t.Fatal("avatar fields not persisted after registration")
	}
}

func TestRegisterUserFailureSkipsAvatar(t *testing.T) {
	gdb := newTestDB(t)
	existing := createTestUser(t, gdb)
	avatar := &recordingAvatarService{}
	svc := newTestAuthService(t, gdb, avatar)

	user := &types.User{Email: existing.Email, Password: "secret"}
	if _, _, err := svc.RegisterUser(context.Background(), user); err == nil {
		t.Fatal("expected duplicate email error, got nil")
	}
	// No user row committed, so no avatar side effect either.
	if avatar.calls != 0 {
		t.Fatalf("avatar renders = %d, want 0", avatar.calls)
	}
}

func TestLoginUserWrongPassword(t *testing.T) {
	gdb := newTestDB(t)
	svc := newTestAuthService(t, gdb, nil)

	user := &types.User{Email: "login@example.com", Password: "correct-horse"}
	if _, _, err := svc.RegisterUser(context.Background(), user); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if _, _, _, err := svc.LoginUser(context.Background(), "login@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure with wrong password, got nil")
	}
	if _, _, _, err := svc.LoginUser(context.Background(), "Login@Example.COM ", "correct-horse"); err != nil {
		t.Fatalf("LoginUser with normalized email: %v", err)
	}
}
