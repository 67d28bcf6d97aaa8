package scheduler

import (
	"time"

	"github.com/mindloop/learncoach-backend/internal/types"
)

// Summary aggregates a user's card population at an instant. MasteryRate is
// the plain ratio mastered/total in [0,1]; presentation (percentages,
// rounding) is the caller's business.
type Summary struct {
	TotalCards    int
	DueNow        int
	MasteredCards int
	MasteryRate   float64
}

// Summarize is a pure reduction over an already-fetched card collection.
func Summarize(cards []*types.Card, now time.Time) Summary {
	var s Summary
	for _, c := range cards {
		if c == nil {
			continue
		}
		s.TotalCards++
		if !c.NextReviewAt.After(now) {
			s.DueNow++
		}
		if c.Interval > MasteredIntervalDays {
			s.MasteredCards++
		}
	}
	if s.TotalCards > 0 {
		s.MasteryRate = float64(s.MasteredCards) / float64(s.TotalCards)
	}
	return s
}

// ReviewsSince counts events reviewed at or after start.
func ReviewsSince(events []*types.ReviewEvent, start time.Time) int {
	count := 0
	for _, e := range events {
		if e == nil {
			continue
		}
		if !e.ReviewedAt.Before(start) {
			count++
		}
	}
	return count
}

// AvgQuality is the arithmetic mean quality over the event population,
// 0 when the population is empty.
func AvgQuality(events []*types.ReviewEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	sum := 0
	n := 0
	for _, e := range events {
		if e == nil {
			continue
		}
		sum += e.Quality
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
