package scheduler

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAdvanceRejectsOutOfRangeQuality(t *testing.T) {
	state := NewState(t0)
	for _, quality := range []int{-1, 6, 100, -42} {
		_, err := Advance(state, quality, t0)
		if err != ErrInvalidQuality {
			t.Fatalf("Advance(quality=%d) err=%v, want ErrInvalidQuality", quality, err)
		}
	}
}

func TestAdvanceFailedRecallResets(t *testing.T) {
	cases := []struct {
		name    string
		state   State
		quality int
	}{
		{
			name:    "fresh_card_blank",
			state:   NewState(t0),
			quality: 0,
		},
		{
			name:    "mature_card_wrong",
			state:   State{EaseFactor: 2.8, Interval: 42, Repetitions: 7},
			quality: 2,
		},
		{
			name:    "second_rep_slipped",
			state:   State{EaseFactor: 2.5, Interval: 6, Repetitions: 2},
			quality: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Advance(tc.state, tc.quality, t0)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if next.Repetitions != 0 {
				t.Errorf("Repetitions=%d, want 0", next.Repetitions)
			}
			if next.Interval != 1 {
				t.Errorf("Interval=%d, want 1", next.Interval)
			}
			if !next.NextReviewAt.Equal(t0.AddDate(0, 0, 1)) {
				t.Errorf("NextReviewAt=%v, want %v", next.NextReviewAt, t0.AddDate(0, 0, 1))
			}
		})
	}
}

func TestAdvanceSuccessIntervalProgression(t *testing.T) {
	cases := []struct {
		name         string
		state        State
		quality      int
		wantInterval int
		wantReps     int
	}{
		{
			name:         "first_success_one_day",
			state:        State{EaseFactor: 2.5, Interval: 0, Repetitions: 0},
			quality:      5,
			wantInterval: 1,
			wantReps:     1,
		},
		{
			name:         "second_success_six_days",
			state:        State{EaseFactor: 2.6, Interval: 1, Repetitions: 1},
			quality:      4,
			wantInterval: 6,
			wantReps:     2,
		},
		{
			name:         "third_success_multiplies_by_ease",
			state:        State{EaseFactor: 2.5, Interval: 6, Repetitions: 2},
			quality:      5,
			wantInterval: 15,
			wantReps:     3,
		},
		{
			name:         "interval_floors_never_rounds",
			state:        State{EaseFactor: 1.3, Interval: 7, Repetitions: 3},
			quality:      3,
			wantInterval: 9, // floor(7 * 1.3) = floor(9.1)
			wantReps:     4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Advance(tc.state, tc.quality, t0)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if next.Interval != tc.wantInterval {
				t.Errorf("Interval=%d, want %d", next.Interval, tc.wantInterval)
			}
			if next.Repetitions != tc.wantReps {
				t.Errorf("Repetitions=%d, want %d", next.Repetitions, tc.wantReps)
			}
			if !next.NextReviewAt.Equal(t0.AddDate(0, 0, tc.wantInterval)) {
				t.Errorf("NextReviewAt=%v, want now+%dd", next.NextReviewAt, tc.wantInterval)
			}
		})
	}
}

// Pins the exact ease-factor deltas of the SM-2 formula, including the
// counter-intuitive behavior on failing qualities: q=2 lowers the ease factor
// less than q=0 even though both reset the streak.
func TestAdvanceEaseFactorFormula(t *testing.T) {
	cases := []struct {
		quality   int
		wantDelta float64
	}{
		{quality: 5, wantDelta: 0.1},
		{quality: 4, wantDelta: 0.0},
		{quality: 3, wantDelta: -0.14},
		{quality: 2, wantDelta: -0.32},
		{quality: 1, wantDelta: -0.54},
		{quality: 0, wantDelta: -0.8},
	}

	const startEF = 2.5
	for _, tc := range cases {
		next, err := Advance(State{EaseFactor: startEF, Interval: 6, Repetitions: 2}, tc.quality, t0)
		if err != nil {
			t.Fatalf("Advance(quality=%d): %v", tc.quality, err)
		}
		want := startEF + tc.wantDelta
		if !almostEqual(next.EaseFactor, want) {
			t.Errorf("quality=%d: EaseFactor=%v, want %v", tc.quality, next.EaseFactor, want)
		}
	}
}

func TestAdvanceEaseFactorNeverBelowFloor(t *testing.T) {
	state := State{EaseFactor: MinEaseFactor, Interval: 1, Repetitions: 0}
	for quality := MinQuality; quality <= MaxQuality; quality++ {
		next, err := Advance(state, quality, t0)
		if err != nil {
			t.Fatalf("Advance(quality=%d): %v", quality, err)
		}
		if next.EaseFactor < MinEaseFactor {
			t.Errorf("quality=%d: EaseFactor=%v dropped below %v", quality, next.EaseFactor, MinEaseFactor)
		}
	}
}

func TestAdvanceIsPure(t *testing.T) {
	state := State{EaseFactor: 2.36, Interval: 17, Repetitions: 4}
	first, err := Advance(state, 3, t0)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	second, err := Advance(state, 3, t0)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if first != second {
		t.Errorf("two identical calls diverged: %+v vs %+v", first, second)
	}
}

// The full lifecycle scenario: create, two successes, one failure.
func TestAdvanceReviewScenario(t *testing.T) {
	state := NewState(t0)
	if !state.NextReviewAt.Equal(t0) {
		t.Fatalf("fresh card not immediately due: %v", state.NextReviewAt)
	}

	state, err := Advance(state, 5, t0)
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	if state.Interval != 1 || state.Repetitions != 1 {
		t.Fatalf("after first review: interval=%d reps=%d, want 1/1", state.Interval, state.Repetitions)
	}
	day1 := t0.AddDate(0, 0, 1)
	if !state.NextReviewAt.Equal(day1) {
		t.Fatalf("after first review: next=%v, want %v", state.NextReviewAt, day1)
	}

	state, err = Advance(state, 5, day1)
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	day7 := t0.AddDate(0, 0, 7)
	if state.Interval != 6 || state.Repetitions != 2 || !state.NextReviewAt.Equal(day7) {
		t.Fatalf("after second review: interval=%d reps=%d next=%v, want 6/2/%v",
			state.Interval, state.Repetitions, state.NextReviewAt, day7)
	}

	state, err = Advance(state, 2, day7)
	if err != nil {
		t.Fatalf("third review: %v", err)
	}
	day8 := t0.AddDate(0, 0, 8)
	if state.Interval != 1 || state.Repetitions != 0 || !state.NextReviewAt.Equal(day8) {
		t.Fatalf("after failed review: interval=%d reps=%d next=%v, want 1/0/%v",
			state.Interval, state.Repetitions, state.NextReviewAt, day8)
	}
}

// Replaying an ordered review history from the initial state must reproduce
// the state reached by incremental updates: the stored scheduling fields are
// just a cache of this replay.
func TestReplayReproducesStoredState(t *testing.T) {
	history := []struct {
		quality int
		daysIn  int
	}{
		{5, 0}, {4, 1}, {3, 7}, {5, 20}, {2, 60}, {4, 61}, {5, 67}, {5, 80},
	}

	stored := NewState(t0)
	for _, h := range history {
		var err error
		stored, err = Advance(stored, h.quality, t0.AddDate(0, 0, h.daysIn))
		if err != nil {
			t.Fatalf("incremental Advance: %v", err)
		}
	}

	replayed := NewState(t0)
	for _, h := range history {
		var err error
		replayed, err = Advance(replayed, h.quality, t0.AddDate(0, 0, h.daysIn))
		if err != nil {
			t.Fatalf("replay Advance: %v", err)
		}
	}

	if stored != replayed {
		t.Errorf("replay diverged from stored state: %+v vs %+v", replayed, stored)
	}
}

func TestFeedbackMessages(t *testing.T) {
	for quality := MinQuality; quality <= MaxQuality; quality++ {
		if Feedback(quality) == "" {
			t.Errorf("Feedback(%d) is empty", quality)
		}
	}
	if Feedback(-1) != "" || Feedback(6) != "" {
		t.Error("out-of-range quality should produce an empty message")
	}
}
