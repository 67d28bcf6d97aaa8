package scheduler

import (
	"testing"
	"time"

	"github.com/mindloop/learncoach-backend/internal/types"
)

func TestSummarizeEmptyPopulation(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.TotalCards != 0 || s.DueNow != 0 || s.MasteredCards != 0 {
		t.Fatalf("unexpected counts on empty population: %+v", s)
	}
	if s.MasteryRate != 0 {
		t.Fatalf("MasteryRate=%v on zero cards, want 0 (no division fault)", s.MasteryRate)
	}
}

func TestSummarizeCounts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cards := []*types.Card{
		{Interval: 45, NextReviewAt: now.AddDate(0, 0, 10)},  // mastered, not due
		{Interval: 31, NextReviewAt: now.AddDate(0, 0, -1)},  // mastered, due
		{Interval: 30, NextReviewAt: now},                    // boundary: NOT mastered, due
		{Interval: 6, NextReviewAt: now.AddDate(0, 0, 3)},    // neither
	}

	s := Summarize(cards, now)
	if s.TotalCards != 4 {
		t.Errorf("TotalCards=%d, want 4", s.TotalCards)
	}
	if s.DueNow != 2 {
		t.Errorf("DueNow=%d, want 2", s.DueNow)
	}
	if s.MasteredCards != 2 {
		t.Errorf("MasteredCards=%d, want 2 (interval must exceed %d)", s.MasteredCards, MasteredIntervalDays)
	}
	if !almostEqual(s.MasteryRate, 0.5) {
		t.Errorf("MasteryRate=%v, want 0.5", s.MasteryRate)
	}
}

func TestReviewsSince(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	events := []*types.ReviewEvent{
		{ReviewedAt: start.Add(-time.Second)},
		{ReviewedAt: start}, // inclusive boundary
		{ReviewedAt: start.Add(time.Hour)},
		nil,
	}
	if got := ReviewsSince(events, start); got != 2 {
		t.Fatalf("ReviewsSince=%d, want 2", got)
	}
	if got := ReviewsSince(nil, start); got != 0 {
		t.Fatalf("ReviewsSince(nil)=%d, want 0", got)
	}
}

func TestAvgQuality(t *testing.T) {
	if got := AvgQuality(nil); got != 0 {
		t.Fatalf("AvgQuality(nil)=%v, want 0", got)
	}
	events := []*types.ReviewEvent{
		{Quality: 5},
		{Quality: 4},
		{Quality: 0},
	}
	if got := AvgQuality(events); !almostEqual(got, 3.0) {
		t.Fatalf("AvgQuality=%v, want 3.0", got)
	}
}
