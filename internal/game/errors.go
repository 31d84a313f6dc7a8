package game

import (
	"errors"

	"github.com/vovakirdan/pose-match/internal/level"
)

var (
	// ErrAcquisition is returned when the camera cannot be acquired.
	// Start and RetryCurrentLevel leave state untouched when it occurs.
	ErrAcquisition = errors.New("game: video acquisition failed")

	// ErrDetection wraps a failed keypoint estimate. The sample is skipped.
	ErrDetection = errors.New("game: pose detection failed")

	// ErrInvalidTransition is returned for commands the current state rejects.
	ErrInvalidTransition = level.ErrInvalidTransition

	// ErrStopped is returned by Runner commands after the loop has exited.
	ErrStopped = errors.New("game: runner stopped")
)
