package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mindloop/learncoach-backend/internal/types"
)

func card(id byte, next time.Time) *types.Card {
	var raw [16]byte
	raw[15] = id
	return &types.Card{ID: uuid.UUID(raw), NextReviewAt: next}
}

func TestDueFiltersAndOrders(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	overdue := card(1, now.AddDate(0, 0, -3))
	justDue := card(2, now)
	future := card(3, now.Add(time.Minute))
	wayOverdue := card(4, now.AddDate(0, 0, -30))

	got := Due([]*types.Card{justDue, future, overdue, wayOverdue}, now)

	if len(got) != 3 {
		t.Fatalf("got %d due cards, want 3", len(got))
	}
	wantOrder := []*types.Card{wayOverdue, overdue, justDue}
	for i, want := range wantOrder {
		if got[i].ID != want.ID {
			t.Errorf("position %d: got card %v, want %v", i, got[i].ID, want.ID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].NextReviewAt.Before(got[i-1].NextReviewAt) {
			t.Errorf("ordering not non-decreasing at %d", i)
		}
	}
}

func TestDueNeverIncludesFutureCards(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cards := []*types.Card{
		card(1, now.Add(time.Nanosecond)),
		card(2, now.AddDate(0, 0, 14)),
	}
	if got := Due(cards, now); len(got) != 0 {
		t.Fatalf("got %d cards, want none", len(got))
	}
}

func TestDueTieBreaksByCardID(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := card(9, now)
	b := card(1, now)

	got := Due([]*types.Card{a, b}, now)
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Fatalf("tie-break by id failed: %v", got)
	}

	// Same result regardless of input order.
	again := Due([]*types.Card{b, a}, now)
	if again[0].ID != got[0].ID || again[1].ID != got[1].ID {
		t.Fatal("ordering depends on input order")
	}
}

func TestDueEmptyInput(t *testing.T) {
	now := time.Now()
	if got := Due(nil, now); len(got) != 0 {
		t.Fatalf("Due(nil) returned %d cards", len(got))
	}
	if got := Due([]*types.Card{}, now); len(got) != 0 {
		t.Fatalf("Due(empty) returned %d cards", len(got))
	}
}
