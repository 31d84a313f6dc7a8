package game

import "time"

// Timing holds the three periodic signals that drive a run.
type Timing struct {
	Display   time.Duration // Elapsed-time refresh
	Countdown time.Duration // Level countdown, one second per tick
	Sampling  time.Duration // Pose sampling
}

// DefaultTiming returns 1s display, 1s countdown and 100ms sampling.
func DefaultTiming() Timing {
	return Timing{
		Display:   time.Second,
		Countdown: time.Second,
		Sampling:  100 * time.Millisecond,
	}
}

// Ticker is the subset of *time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a running ticker with period d.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Scheduler owns the display, countdown and sampling tickers of a run.
// They are armed and cancelled together; a cancelled scheduler returns nil
// channels so a select over them never fires again.
//
// Scheduler is used from the Runner loop only and is not safe for
// concurrent use.
type Scheduler struct {
	timing    Timing
	newTicker TickerFunc

	display   Ticker
	countdown Ticker
	sampling  Ticker

	generation uint64
}

// NewScheduler creates an unarmed scheduler. A nil newTicker uses NewStdTicker.
func NewScheduler(timing Timing, newTicker TickerFunc) *Scheduler {
	def := DefaultTiming()
	if timing.Display <= 0 {
		timing.Display = def.Display
	}
	if timing.Countdown <= 0 {
		timing.Countdown = def.Countdown
	}
	if timing.Sampling <= 0 {
		timing.Sampling = def.Sampling
	}
	if newTicker == nil {
		newTicker = NewStdTicker
	}
	return &Scheduler{timing: timing, newTicker: newTicker}
}

// Arm starts all three tickers, replacing any running ones.
// It returns the new generation.
func (s *Scheduler) Arm() uint64 {
	s.Cancel()
	s.display = s.newTicker(s.timing.Display)
	s.countdown = s.newTicker(s.timing.Countdown)
	s.sampling = s.newTicker(s.timing.Sampling)
	return s.generation
}

// RestartCountdown restarts only the countdown so a new level gets a
// full first second. No-op when unarmed.
func (s *Scheduler) RestartCountdown() {
	if s.countdown == nil {
		return
	}
	s.countdown.Stop()
	s.countdown = s.newTicker(s.timing.Countdown)
}

// Cancel stops all three tickers and bumps the generation so work
// started under the old generation can be recognised as stale.
func (s *Scheduler) Cancel() {
	for _, t := range []Ticker{s.display, s.countdown, s.sampling} {
		if t != nil {
			t.Stop()
		}
	}
	s.display, s.countdown, s.sampling = nil, nil, nil
	s.generation++
}

// Armed reports whether the tickers are running.
func (s *Scheduler) Armed() bool {
	return s.countdown != nil
}

// Generation identifies the current arm/cancel cycle.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// Display returns the display tick channel, nil when cancelled.
func (s *Scheduler) Display() <-chan time.Time { return tickC(s.display) }

// Countdown returns the countdown tick channel, nil when cancelled.
func (s *Scheduler) Countdown() <-chan time.Time { return tickC(s.countdown) }

// Sampling returns the sampling tick channel, nil when cancelled.
func (s *Scheduler) Sampling() <-chan time.Time { return tickC(s.sampling) }

func tickC(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}
