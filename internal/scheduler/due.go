package scheduler

import (
	"sort"
	"time"

	"github.com/mindloop/learncoach-backend/internal/types"
)

// Due returns the cards whose next review time has passed, earliest-overdue
// first. Ties on next_review_at break by card id so the ordering is
// deterministic. The input slice is not modified; an empty result is a valid
// answer, not an error.
func Due(cards []*types.Card, now time.Time) []*types.Card {
	due := make([]*types.Card, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		if !c.NextReviewAt.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return due[i].ID.String() < due[j].ID.String()
	})
	return due
}
