package level

import (
	"errors"
	"fmt"
)

// Defaults for a level.
const (
	DefaultTimeLimit     = 60 // seconds
	DefaultPassThreshold = 80 // percent

	// MaxTimeLimit caps the countdown a session starts from.
	MaxTimeLimit = DefaultTimeLimit
)

// ErrInvalidTransition is returned when an event arrives in a state that
// does not accept it.
var ErrInvalidTransition = errors.New("invalid transition")

// Status is the lifecycle state of a level session.
type Status int

const (
	StatusActive Status = iota
	StatusPassed
	StatusFailed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events are accepted.
func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Rules parameterise a session.
type Rules struct {
	TimeLimit     int     // Countdown start in seconds
	PassThreshold float64 // Score percent at which the level is passed
}

// DefaultRules returns the standard 60 second / 80 percent rules.
func DefaultRules() Rules {
	return Rules{
		TimeLimit:     DefaultTimeLimit,
		PassThreshold: DefaultPassThreshold,
	}
}

// Session tracks a single attempt at one level.
// A session starts Active and ends in exactly one of Passed or Failed;
// a retry builds a new Session rather than reviving an old one.
type Session struct {
	index     int
	rules     Rules
	remaining int
	score     float64
	status    Status
}

// NewSession creates an Active session for the 1-based level index.
// Time limits outside 1..MaxTimeLimit fall back to DefaultTimeLimit.
func NewSession(index int, rules Rules) *Session {
	if rules.TimeLimit <= 0 || rules.TimeLimit > MaxTimeLimit {
		rules.TimeLimit = DefaultTimeLimit
	}
	return &Session{
		index:     index,
		rules:     rules,
		remaining: rules.TimeLimit,
		status:    StatusActive,
	}
}

// Index returns the 1-based level index.
func (s *Session) Index() int { return s.index }

// TimeRemaining returns the seconds left on the countdown.
func (s *Session) TimeRemaining() int { return s.remaining }

// Score returns the latest clamped score percent.
func (s *Session) Score() float64 { return s.score }

// Status returns the session status.
func (s *Session) Status() Status { return s.status }

// Rules returns the rules this session was built with.
func (s *Session) Rules() Rules { return s.rules }

// OnTick counts the timer down by one second.
// Reaching zero fails the session.
func (s *Session) OnTick() error {
	if s.status != StatusActive {
		return fmt.Errorf("level %d: tick while %s: %w", s.index, s.status, ErrInvalidTransition)
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.status = StatusFailed
	}
	return nil
}

// OnScore records a new score. Scores at or above the pass threshold
// pass the session regardless of the time left.
func (s *Session) OnScore(percent float64) error {
	if s.status != StatusActive {
		return fmt.Errorf("level %d: score while %s: %w", s.index, s.status, ErrInvalidTransition)
	}

	s.score = clampPercent(percent)
	if s.score >= s.rules.PassThreshold {
		s.status = StatusPassed
	}
	return nil
}

func clampPercent(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
