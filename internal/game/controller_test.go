package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/pose-match/internal/level"
	"github.com/vovakirdan/pose-match/internal/pose"
)

type fakeVideo struct {
	provider *fakeProvider
	seq      uint64
}

func (v *fakeVideo) Frame() pose.Frame {
	v.seq++
	return pose.Frame{Seq: v.seq}
}

func (v *fakeVideo) Close() error {
	v.provider.closed++
	return nil
}

type fakeProvider struct {
	err      error
	acquired int
	closed   int
}

func (p *fakeProvider) Acquire(context.Context) (pose.Video, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.acquired++
	return &fakeVideo{provider: p}, nil
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func confident(score float64) pose.Snapshot {
	return pose.FromScores(map[string]float64{
		pose.Nose:          score,
		pose.LeftShoulder:  score,
		pose.RightShoulder: score,
		pose.LeftHip:       score,
		pose.RightHip:      score,
	})
}

func newTestController(t *testing.T) (*Controller, *fakeProvider, *fakeClock, *[]Event) {
	t.Helper()
	provider := &fakeProvider{}
	clock := newFakeClock()
	var events []Event
	c := NewController(DefaultConfig(), provider,
		WithClock(clock.Now),
		WithObserver(ObserverFunc(func(evt Event) { events = append(events, evt) })),
	)
	return c, provider, clock, &events
}

func mustStart(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestControllerInitialState(t *testing.T) {
	c, _, _, _ := newTestController(t)

	v := c.View()
	if v.RunStatus != RunNotStarted {
		t.Errorf("RunStatus = %v, want not_started", v.RunStatus)
	}
	if v.LevelIndex != 1 || v.TotalLevels != DefaultTotalLevels {
		t.Errorf("level = %d/%d, want 1/%d", v.LevelIndex, v.TotalLevels, DefaultTotalLevels)
	}
	if v.TimeRemaining != 60 || v.ScorePercent != 0 {
		t.Errorf("remaining=%d score=%v, want 60 and 0", v.TimeRemaining, v.ScorePercent)
	}
}

func TestControllerStart(t *testing.T) {
	c, provider, _, events := newTestController(t)
	mustStart(t, c)

	if c.Status() != RunRunning {
		t.Errorf("Status() = %v, want running", c.Status())
	}
	if c.Session() == nil || c.Session().Status() != level.StatusActive {
		t.Error("expected an active level 1 session")
	}
	if provider.acquired != 1 {
		t.Errorf("acquired = %d, want 1", provider.acquired)
	}
	if len(*events) != 1 || (*events)[0].Kind != EventStarted {
		t.Errorf("events = %v, want [started]", *events)
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start() error = %v, want ErrInvalidTransition", err)
	}
}

func TestControllerClampsTimeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.TimeLimit = 120
	c := NewController(cfg, &fakeProvider{})

	if v := c.View(); v.TimeRemaining != 60 {
		t.Errorf("TimeRemaining before start = %d, want 60", v.TimeRemaining)
	}
	mustStart(t, c)
	if v := c.View(); v.TimeRemaining != 60 {
		t.Errorf("TimeRemaining after start = %d, want 60", v.TimeRemaining)
	}
}

func TestControllerStartAcquisitionFailure(t *testing.T) {
	c, provider, _, events := newTestController(t)
	provider.err = errors.New("permission denied")

	err := c.Start(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Fatalf("Start() error = %v, want ErrAcquisition", err)
	}
	if c.Status() != RunNotStarted {
		t.Errorf("Status() = %v, want not_started", c.Status())
	}
	if c.Session() != nil {
		t.Error("session created despite acquisition failure")
	}
	if len(*events) != 0 {
		t.Errorf("events = %v, want none", *events)
	}

	// Recovers once the camera is available.
	provider.err = nil
	mustStart(t, c)
}

func TestControllerStartWithoutProvider(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	if err := c.Start(context.Background()); !errors.Is(err, ErrAcquisition) {
		t.Errorf("Start() error = %v, want ErrAcquisition", err)
	}
}

func TestControllerPassingSampleAdvances(t *testing.T) {
	c, _, clock, events := newTestController(t)
	mustStart(t, c)

	clock.Advance(5 * time.Second)
	score, err := c.Sample(confident(0.9))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if score < 89.999 || score > 90.001 {
		t.Errorf("score = %v, want 90", score)
	}

	if c.LevelIndex() != 2 {
		t.Fatalf("LevelIndex() = %d, want 2", c.LevelIndex())
	}
	v := c.View()
	if v.TimeRemaining != 60 || v.ScorePercent != 0 || v.LevelStatus != level.StatusActive {
		t.Errorf("new level view = %+v, want fresh session", v)
	}
	if len(v.Outcomes) != 1 || v.Outcomes[0].Level != 1 || v.Outcomes[0].Duration != 5*time.Second {
		t.Errorf("outcomes = %+v", v.Outcomes)
	}

	last := (*events)[len(*events)-1]
	if last.Kind != EventLevelPassed || last.Level != 1 {
		t.Errorf("last event = %v level %d, want level_passed level 1", last.Kind, last.Level)
	}
}

func TestControllerLowSampleStaysActive(t *testing.T) {
	c, _, _, _ := newTestController(t)
	mustStart(t, c)

	score, err := c.Sample(pose.FromScores(map[string]float64{pose.Nose: 0.2}))
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
	if c.LevelIndex() != 1 || c.Session().Status() != level.StatusActive {
		t.Error("level should remain active at index 1")
	}
}

func TestControllerCompletesAfterLastLevel(t *testing.T) {
	c, provider, clock, events := newTestController(t)
	mustStart(t, c)

	for i := 1; i <= DefaultTotalLevels; i++ {
		clock.Advance(10 * time.Second)
		if _, err := c.Sample(confident(0.95)); err != nil {
			t.Fatalf("Sample() at level %d error = %v", i, err)
		}
	}

	if c.Status() != RunCompleted {
		t.Fatalf("Status() = %v, want completed", c.Status())
	}
	if c.LevelIndex() != DefaultTotalLevels {
		t.Errorf("LevelIndex() = %d, want %d (no fifth level)", c.LevelIndex(), DefaultTotalLevels)
	}
	if c.Elapsed() != 40*time.Second {
		t.Errorf("Elapsed() = %v, want 40s", c.Elapsed())
	}
	if provider.closed != 1 {
		t.Errorf("video closed %d times, want 1", provider.closed)
	}

	// Elapsed is frozen once the run ends.
	clock.Advance(time.Minute)
	if c.Elapsed() != 40*time.Second {
		t.Errorf("Elapsed() after completion = %v, want 40s", c.Elapsed())
	}

	last := (*events)[len(*events)-1]
	if last.Kind != EventCompleted || last.Level != DefaultTotalLevels {
		t.Errorf("last event = %v level %d, want completed", last.Kind, last.Level)
	}

	if _, err := c.Sample(confident(0.95)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Sample() after completion error = %v, want ErrInvalidTransition", err)
	}
}

func TestControllerTimeoutFails(t *testing.T) {
	c, provider, _, events := newTestController(t)
	mustStart(t, c)

	for i := 1; i <= 60; i++ {
		if _, err := c.Sample(confident(0.5)); err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		if err := c.Tick(); err != nil {
			t.Fatalf("Tick() %d error = %v", i, err)
		}
		if i < 60 && c.Status() != RunRunning {
			t.Fatalf("run ended early at tick %d", i)
		}
	}

	if c.Status() != RunFailed {
		t.Fatalf("Status() = %v, want failed", c.Status())
	}
	if provider.closed != 1 {
		t.Errorf("video closed %d times, want 1", provider.closed)
	}
	last := (*events)[len(*events)-1]
	if last.Kind != EventLevelFailed {
		t.Errorf("last event = %v, want level_failed", last.Kind)
	}
	if err := c.Tick(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Tick() after failure error = %v, want ErrInvalidTransition", err)
	}
}

func TestControllerEventsKeepRunningLevelActive(t *testing.T) {
	c, _, _, events := newTestController(t)

	mustStart(t, c)
	if _, err := c.Sample(confident(0.9)); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if _, err := c.Sample(confident(0.5)); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	failLevel(t, c)
	if err := c.RetryCurrentLevel(context.Background()); err != nil {
		t.Fatalf("RetryCurrentLevel() error = %v", err)
	}
	for c.Status() == RunRunning {
		if _, err := c.Sample(confident(0.95)); err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
	}

	counts := make(map[EventKind]int)
	for _, evt := range *events {
		counts[evt.Kind]++
		if evt.View.RunStatus == RunRunning && evt.View.LevelStatus != level.StatusActive {
			t.Errorf("%v event: running run with %v level", evt.Kind, evt.View.LevelStatus)
		}
	}

	tests := []struct {
		kind EventKind
		want int
	}{
		{EventScore, 1},
		{EventTick, 59},
		{EventLevelFailed, 1},
		{EventLevelPassed, 3},
		{EventCompleted, 1},
	}
	for _, tt := range tests {
		if counts[tt.kind] != tt.want {
			t.Errorf("%v events = %d, want %d", tt.kind, counts[tt.kind], tt.want)
		}
	}
}

func failLevel(t *testing.T, c *Controller) {
	t.Helper()
	for c.Status() == RunRunning {
		if err := c.Tick(); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
}

func TestControllerRetryCurrentLevel(t *testing.T) {
	c, provider, _, _ := newTestController(t)
	mustStart(t, c)

	if _, err := c.Sample(confident(0.9)); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if _, err := c.Sample(confident(0.6)); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	failLevel(t, c)

	if err := c.RetryCurrentLevel(context.Background()); err != nil {
		t.Fatalf("RetryCurrentLevel() error = %v", err)
	}

	v := c.View()
	if v.RunStatus != RunRunning || v.LevelStatus != level.StatusActive {
		t.Errorf("after retry run=%v level=%v, want running/active", v.RunStatus, v.LevelStatus)
	}
	if v.LevelIndex != 2 {
		t.Errorf("LevelIndex = %d, want 2", v.LevelIndex)
	}
	if v.TimeRemaining != 60 || v.ScorePercent != 0 {
		t.Errorf("remaining=%d score=%v, want 60 and 0", v.TimeRemaining, v.ScorePercent)
	}
	if provider.acquired != 2 {
		t.Errorf("acquired = %d, want 2 (camera re-acquired)", provider.acquired)
	}
}

func TestControllerRetryRejected(t *testing.T) {
	c, _, _, _ := newTestController(t)

	if err := c.RetryCurrentLevel(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("retry before start error = %v, want ErrInvalidTransition", err)
	}

	mustStart(t, c)
	if err := c.RetryCurrentLevel(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("retry while running error = %v, want ErrInvalidTransition", err)
	}

	for i := 0; i < DefaultTotalLevels; i++ {
		if _, err := c.Sample(confident(1)); err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
	}
	if err := c.RetryCurrentLevel(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("retry after completion error = %v, want ErrInvalidTransition", err)
	}
}

func TestControllerRetryAcquisitionFailure(t *testing.T) {
	c, provider, _, _ := newTestController(t)
	mustStart(t, c)
	failLevel(t, c)

	provider.err = errors.New("camera busy")
	if err := c.RetryCurrentLevel(context.Background()); !errors.Is(err, ErrAcquisition) {
		t.Fatalf("RetryCurrentLevel() error = %v, want ErrAcquisition", err)
	}
	if c.Status() != RunFailed {
		t.Errorf("Status() = %v, want failed", c.Status())
	}
}

func TestControllerAdvanceAndFailGuards(t *testing.T) {
	c, _, _, _ := newTestController(t)
	if err := c.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance() before start error = %v", err)
	}

	mustStart(t, c)
	if err := c.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance() on active level error = %v", err)
	}
	if err := c.Fail(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fail() on active level error = %v", err)
	}
}

func TestControllerReset(t *testing.T) {
	states := map[string]func(t *testing.T, c *Controller){
		"not started": func(*testing.T, *Controller) {},
		"running at level 3": func(t *testing.T, c *Controller) {
			mustStart(t, c)
			c.Sample(confident(1))
			c.Sample(confident(1))
		},
		"failed": func(t *testing.T, c *Controller) {
			mustStart(t, c)
			failLevel(t, c)
		},
		"completed": func(t *testing.T, c *Controller) {
			mustStart(t, c)
			for i := 0; i < DefaultTotalLevels; i++ {
				c.Sample(confident(1))
			}
		},
	}

	for name, setup := range states {
		t.Run(name, func(t *testing.T) {
			c, _, _, _ := newTestController(t)
			setup(t, c)

			c.Reset()

			v := c.View()
			if v.RunStatus != RunNotStarted || v.LevelIndex != 1 {
				t.Errorf("after Reset() run=%v level=%d, want not_started/1", v.RunStatus, v.LevelIndex)
			}
			if v.Elapsed != 0 || len(v.Outcomes) != 0 || v.ScorePercent != 0 {
				t.Errorf("after Reset() view = %+v, want cleared", v)
			}
			if _, ok := c.Frame(); ok {
				t.Error("video still held after Reset()")
			}

			// A reset run can be started again.
			mustStart(t, c)
		})
	}
}

func TestControllerElapsedWhileRunning(t *testing.T) {
	c, _, clock, _ := newTestController(t)
	mustStart(t, c)

	clock.Advance(75 * time.Second)
	if got := FormatClock(c.Elapsed()); got != "01:15" {
		t.Errorf("FormatClock(Elapsed()) = %q, want 01:15", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[int]string{0: "00:00", 9: "00:09", 60: "01:00", 61: "01:01", -3: "00:00"}
	for in, want := range tests {
		if got := FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", in, got, want)
		}
	}
}
