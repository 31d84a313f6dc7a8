package game

import (
	"sync"
	"testing"
	"time"
)

// manualTicker is a Ticker whose ticks are pushed by the test.
type manualTicker struct {
	period  time.Duration
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.c }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tickerBank hands out manual tickers and remembers the latest per period.
type tickerBank struct {
	mu      sync.Mutex
	latest  map[time.Duration]*manualTicker
	created []*manualTicker
}

func newTickerBank() *tickerBank {
	return &tickerBank{latest: make(map[time.Duration]*manualTicker)}
}

func (b *tickerBank) New(d time.Duration) Ticker {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &manualTicker{period: d, c: make(chan time.Time, 1)}
	b.latest[d] = t
	b.created = append(b.created, t)
	return t
}

func (b *tickerBank) Latest(d time.Duration) *manualTicker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest[d]
}

func (b *tickerBank) Created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.created)
}

var testTiming = Timing{
	Display:   3 * time.Second,
	Countdown: time.Second,
	Sampling:  100 * time.Millisecond,
}

func TestSchedulerArmAndCancel(t *testing.T) {
	bank := newTickerBank()
	s := NewScheduler(testTiming, bank.New)

	if s.Armed() {
		t.Fatal("new scheduler should be unarmed")
	}
	if s.Display() != nil || s.Countdown() != nil || s.Sampling() != nil {
		t.Fatal("unarmed scheduler should expose nil channels")
	}

	gen := s.Arm()
	if !s.Armed() || bank.Created() != 3 {
		t.Fatalf("Arm() armed=%v created=%d, want true/3", s.Armed(), bank.Created())
	}
	if s.Display() == nil || s.Countdown() == nil || s.Sampling() == nil {
		t.Fatal("armed scheduler should expose all channels")
	}

	display := bank.Latest(testTiming.Display)
	countdown := bank.Latest(testTiming.Countdown)
	sampling := bank.Latest(testTiming.Sampling)

	s.Cancel()

	if !display.Stopped() || !countdown.Stopped() || !sampling.Stopped() {
		t.Error("Cancel() must stop all three tickers")
	}
	if s.Display() != nil || s.Countdown() != nil || s.Sampling() != nil {
		t.Error("cancelled scheduler should expose nil channels")
	}
	if s.Generation() == gen {
		t.Error("Cancel() should bump the generation")
	}
}

func TestSchedulerRearmStopsPrevious(t *testing.T) {
	bank := newTickerBank()
	s := NewScheduler(testTiming, bank.New)

	s.Arm()
	first := bank.Latest(testTiming.Sampling)
	s.Arm()

	if !first.Stopped() {
		t.Error("re-arming must stop the previous tickers")
	}
	if bank.Latest(testTiming.Sampling) == first {
		t.Error("re-arming must create fresh tickers")
	}
}

func TestSchedulerRestartCountdown(t *testing.T) {
	bank := newTickerBank()
	s := NewScheduler(testTiming, bank.New)

	s.RestartCountdown()
	if bank.Created() != 0 {
		t.Fatal("RestartCountdown() on unarmed scheduler should do nothing")
	}

	s.Arm()
	old := bank.Latest(testTiming.Countdown)
	sampling := bank.Latest(testTiming.Sampling)
	s.RestartCountdown()

	if !old.Stopped() {
		t.Error("old countdown ticker should be stopped")
	}
	if sampling.Stopped() {
		t.Error("sampling ticker should keep running")
	}
	if bank.Latest(testTiming.Countdown) == old {
		t.Error("expected a new countdown ticker")
	}
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(Timing{}, nil)
	if s.timing != DefaultTiming() {
		t.Errorf("timing = %+v, want defaults", s.timing)
	}
}
