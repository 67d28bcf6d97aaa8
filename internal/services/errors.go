package services

import "errors"

// Sentinel errors the handlers translate into HTTP statuses. Quality-range
// violations are scheduler.ErrInvalidQuality and surface from ReviewCard
// unchanged.
var (
	ErrCardNotFound    = errors.New("card not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)
