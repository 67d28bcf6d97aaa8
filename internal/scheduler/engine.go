// Package scheduler implements the SM-2 spaced-repetition core: the pure
// state-transition engine, the due-queue selector, and the mastery
// aggregator. Nothing in this package performs I/O; callers supply "now".
package scheduler

import (
	"errors"
	"math"
	"time"
)

const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3

	// A card whose interval has grown past this many days counts as mastered.
	MasteredIntervalDays = 30

	MinQuality = 0
	MaxQuality = 5
)

// ErrInvalidQuality is returned for quality outside [0,5]. Out-of-range
// values are rejected, never clamped.
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// State is a card's scheduling state. Advance assumes the invariants hold on
// entry (EaseFactor >= 1.3, Interval >= 0, Repetitions >= 0); a violated
// input state is a caller bug.
type State struct {
	EaseFactor   float64
	Interval     int
	Repetitions  int
	NextReviewAt time.Time
}

// NewState is the state of a freshly created card: immediately due.
func NewState(createdAt time.Time) State {
	return State{
		EaseFactor:   InitialEaseFactor,
		Interval:     0,
		Repetitions:  0,
		NextReviewAt: createdAt,
	}
}

// Advance computes the next scheduling state for one review. It is a pure
// function of (state, quality, now); replaying a card's full review history
// through Advance from NewState reproduces its stored state.
func Advance(state State, quality int, now time.Time) (State, error) {
	if quality < MinQuality || quality > MaxQuality {
		return State{}, ErrInvalidQuality
	}

	next := state
	if quality < 3 {
		next.Repetitions = 0
		next.Interval = 1
	} else {
		switch state.Repetitions {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = int(math.Floor(float64(state.Interval) * state.EaseFactor))
		}
		next.Repetitions = state.Repetitions + 1
	}

	// The ease factor update uses the pre-update value and runs on failed
	// recalls too. That is standard SM-2: a quality of 2 moves the ease
	// factor less than a quality of 0 does, even though both reset the
	// repetition streak.
	q := float64(quality)
	ef := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	next.EaseFactor = ef

	next.NextReviewAt = now.AddDate(0, 0, next.Interval)
	return next, nil
}
