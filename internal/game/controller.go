package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/pose-match/internal/level"
	"github.com/vovakirdan/pose-match/internal/pose"
)

// Config defines the shape of a run.
type Config struct {
	Levels []level.Level
	Rules  level.Rules
	Scorer pose.Scorer
}

// DefaultConfig returns the standard four level run.
func DefaultConfig() Config {
	return Config{
		Levels: level.DefaultLevels,
		Rules:  level.DefaultRules(),
		Scorer: pose.NewScorer(),
	}
}

// View is a read-only snapshot of the run for rendering.
type View struct {
	LevelIndex    int
	TotalLevels   int
	LevelName     string
	Reference     string
	TimeRemaining int
	ScorePercent  float64
	PassThreshold float64
	LevelStatus   level.Status
	RunStatus     RunStatus
	Elapsed       time.Duration
	Outcomes      []LevelOutcome
}

// Controller owns a run: it sequences level sessions, holds the acquired
// video and aggregates run timing.
//
// Controller is not safe for concurrent use. Runner serialises every call
// onto one goroutine; tests may call it directly.
type Controller struct {
	cfg      Config
	provider pose.VideoProvider
	observer Observer
	now      func() time.Time

	status         RunStatus
	index          int
	session        *level.Session
	video          pose.Video
	startedAt      time.Time
	levelStartedAt time.Time
	stoppedAt      time.Time
	outcomes       []LevelOutcome
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithObserver sets the observer notified after every change.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// NewController creates a controller in the NotStarted state.
func NewController(cfg Config, provider pose.VideoProvider, opts ...Option) *Controller {
	if len(cfg.Levels) == 0 {
		cfg.Levels = level.DefaultLevels
	}
	if cfg.Rules.TimeLimit <= 0 || cfg.Rules.TimeLimit > level.MaxTimeLimit {
		cfg.Rules.TimeLimit = level.DefaultTimeLimit
	}
	if cfg.Rules.PassThreshold <= 0 {
		cfg.Rules.PassThreshold = level.DefaultPassThreshold
	}
	if len(cfg.Scorer.Anchors) == 0 {
		cfg.Scorer = pose.NewScorer()
	}

	c := &Controller{
		cfg:      cfg,
		provider: provider,
		now:      time.Now,
		index:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TotalLevels returns the number of levels in the run.
func (c *Controller) TotalLevels() int { return len(c.cfg.Levels) }

// Status returns the run status.
func (c *Controller) Status() RunStatus { return c.status }

// LevelIndex returns the 1-based index of the current level.
func (c *Controller) LevelIndex() int { return c.index }

// Session returns the current level session, or nil before the first start.
func (c *Controller) Session() *level.Session { return c.session }

// Start acquires the camera and begins level 1.
func (c *Controller) Start(ctx context.Context) error {
	if c.status != RunNotStarted {
		return fmt.Errorf("start while %s: %w", c.status, ErrInvalidTransition)
	}

	if err := c.acquire(ctx); err != nil {
		return err
	}

	now := c.now()
	c.index = 1
	c.outcomes = nil
	c.session = level.NewSession(c.index, c.cfg.Rules)
	c.startedAt = now
	c.levelStartedAt = now
	c.stoppedAt = time.Time{}
	c.status = RunRunning

	c.emit(EventStarted, c.index)
	return nil
}

// Tick counts the current level down by one second and fails the run
// when the countdown expires. A tick that ends the level is reported as
// EventLevelFailed only.
func (c *Controller) Tick() error {
	if c.status != RunRunning {
		return fmt.Errorf("tick while %s: %w", c.status, ErrInvalidTransition)
	}
	if err := c.session.OnTick(); err != nil {
		return err
	}

	if c.session.Status() == level.StatusFailed {
		return c.Fail()
	}
	c.emit(EventTick, c.index)
	return nil
}

// Sample scores snap and feeds the result to the current level,
// advancing when it passes. It returns the computed score. A passing
// sample is reported by the advance event alone.
func (c *Controller) Sample(snap pose.Snapshot) (float64, error) {
	if c.status != RunRunning {
		return 0, fmt.Errorf("sample while %s: %w", c.status, ErrInvalidTransition)
	}

	score := c.cfg.Scorer.Score(snap)
	if err := c.session.OnScore(score); err != nil {
		return score, err
	}

	if c.session.Status() == level.StatusPassed {
		return score, c.Advance()
	}
	c.emit(EventScore, c.index)
	return score, nil
}

// DisplayTick publishes the elapsed run time.
func (c *Controller) DisplayTick() {
	if c.status != RunRunning {
		return
	}
	c.emit(EventElapsed, c.index)
}

// Advance moves past a passed level. From the last level it completes
// the run; otherwise it opens the next level with a full countdown.
func (c *Controller) Advance() error {
	if c.status != RunRunning || c.session == nil || c.session.Status() != level.StatusPassed {
		return fmt.Errorf("advance without a passed level: %w", ErrInvalidTransition)
	}

	now := c.now()
	cleared := c.index
	c.record(now)

	if c.index >= c.TotalLevels() {
		c.status = RunCompleted
		c.stoppedAt = now
		c.release()
		c.emit(EventCompleted, cleared)
		return nil
	}

	c.index++
	c.session = level.NewSession(c.index, c.cfg.Rules)
	c.levelStartedAt = now
	c.emit(EventLevelPassed, cleared)
	return nil
}

// Fail ends the run after the current level timed out.
func (c *Controller) Fail() error {
	if c.status != RunRunning || c.session == nil || c.session.Status() != level.StatusFailed {
		return fmt.Errorf("fail without a failed level: %w", ErrInvalidTransition)
	}

	now := c.now()
	c.record(now)
	c.status = RunFailed
	c.stoppedAt = now
	c.release()
	c.emit(EventLevelFailed, c.index)
	return nil
}

// RetryCurrentLevel restarts the level that timed out with a fresh
// countdown and score. The camera is acquired again and the run clock
// restarts.
func (c *Controller) RetryCurrentLevel(ctx context.Context) error {
	if c.status != RunFailed {
		return fmt.Errorf("retry while %s: %w", c.status, ErrInvalidTransition)
	}

	if err := c.acquire(ctx); err != nil {
		return err
	}

	now := c.now()
	c.session = level.NewSession(c.index, c.cfg.Rules)
	c.startedAt = now
	c.levelStartedAt = now
	c.stoppedAt = time.Time{}
	c.status = RunRunning

	c.emit(EventRetry, c.index)
	return nil
}

// Reset discards all run state and returns to NotStarted at level 1.
func (c *Controller) Reset() {
	c.release()
	c.status = RunNotStarted
	c.index = 1
	c.session = nil
	c.outcomes = nil
	c.startedAt = time.Time{}
	c.levelStartedAt = time.Time{}
	c.stoppedAt = time.Time{}

	c.emit(EventReset, c.index)
}

// Elapsed returns the run time: live while running, frozen once the run ends.
func (c *Controller) Elapsed() time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}
	if !c.stoppedAt.IsZero() {
		return c.stoppedAt.Sub(c.startedAt)
	}
	return c.now().Sub(c.startedAt)
}

// Frame returns the latest frame of the acquired video.
func (c *Controller) Frame() (pose.Frame, bool) {
	if c.video == nil {
		return pose.Frame{}, false
	}
	return c.video.Frame(), true
}

// View returns the current snapshot.
func (c *Controller) View() View {
	v := View{
		LevelIndex:    c.index,
		TotalLevels:   c.TotalLevels(),
		TimeRemaining: c.cfg.Rules.TimeLimit,
		PassThreshold: c.cfg.Rules.PassThreshold,
		LevelStatus:   level.StatusActive,
		RunStatus:     c.status,
		Elapsed:       c.Elapsed(),
	}
	if lvl := level.Lookup(c.cfg.Levels, c.index); lvl != nil {
		v.LevelName = lvl.Name
		v.Reference = lvl.Reference
	}
	if c.session != nil {
		v.TimeRemaining = c.session.TimeRemaining()
		v.ScorePercent = c.session.Score()
		v.LevelStatus = c.session.Status()
	}
	if len(c.outcomes) > 0 {
		v.Outcomes = append([]LevelOutcome(nil), c.outcomes...)
	}
	return v
}

func (c *Controller) acquire(ctx context.Context) error {
	if c.provider == nil {
		return fmt.Errorf("%w: no video provider", ErrAcquisition)
	}
	video, err := c.provider.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrAcquisition) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	c.release()
	c.video = video
	return nil
}

func (c *Controller) release() {
	if c.video == nil {
		return
	}
	//nolint:errcheck // Best-effort release, the run state is already final
	c.video.Close()
	c.video = nil
}

func (c *Controller) record(now time.Time) {
	c.outcomes = append(c.outcomes, LevelOutcome{
		Level:    c.index,
		Status:   c.session.Status(),
		Score:    c.session.Score(),
		Duration: now.Sub(c.levelStartedAt),
	})
}

func (c *Controller) emit(kind EventKind, lvl int) {
	if c.observer == nil {
		return
	}
	c.observer.Notify(Event{Kind: kind, Level: lvl, View: c.View()})
}
