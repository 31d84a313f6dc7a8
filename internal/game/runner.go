package game

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pose-match/internal/pose"
)

type commandKind int

const (
	cmdStart commandKind = iota
	cmdRetry
	cmdReset
	cmdView
)

type command struct {
	kind  commandKind
	ctx   context.Context
	reply chan commandReply
}

type commandReply struct {
	view View
	err  error
}

type sampleResult struct {
	generation uint64
	snap       pose.Snapshot
	err        error
}

// Runner drives a Controller from one event loop. Scheduler ticks,
// detection results and commands are all handled on the goroutine running
// Run, so the controller is never touched concurrently.
//
// At most one detection is in flight; sampling ticks that arrive while one
// is outstanding are dropped.
type Runner struct {
	ctrl     *Controller
	detector pose.Detector
	sched    *Scheduler
	logger   *log.Logger

	cmds    chan command
	results chan sampleResult
	done    chan struct{}

	inflight     bool
	cancelSample context.CancelFunc
	level        int
	dropped      uint64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithScheduler replaces the default scheduler.
func WithScheduler(s *Scheduler) RunnerOption {
	return func(r *Runner) { r.sched = s }
}

// NewRunner creates a runner. Call Run to start the loop.
func NewRunner(ctrl *Controller, detector pose.Detector, opts ...RunnerOption) *Runner {
	r := &Runner{
		ctrl:     ctrl,
		detector: detector,
		cmds:     make(chan command),
		results:  make(chan sampleResult, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sched == nil {
		r.sched = NewScheduler(DefaultTiming(), nil)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Run processes events until ctx is cancelled. The scheduler is cancelled
// and the controller reset on exit.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-r.cmds:
			r.handleCommand(cmd)

		case <-r.sched.Display():
			r.ctrl.DisplayTick()

		case <-r.sched.Countdown():
			if err := r.ctrl.Tick(); err != nil {
				r.logger.Debug("countdown tick ignored", "error", err)
			}
			r.sync()

		case <-r.sched.Sampling():
			r.sample(ctx)

		case res := <-r.results:
			r.finishSample(res)
			r.sync()
		}
	}
}

// Start starts the run. It returns an ErrAcquisition error if the camera
// is unavailable.
func (r *Runner) Start(ctx context.Context) error {
	_, err := r.send(ctx, cmdStart)
	return err
}

// Retry restarts the level that timed out.
func (r *Runner) Retry(ctx context.Context) error {
	_, err := r.send(ctx, cmdRetry)
	return err
}

// Reset returns the run to NotStarted.
func (r *Runner) Reset(ctx context.Context) error {
	_, err := r.send(ctx, cmdReset)
	return err
}

// View returns the current snapshot as seen by the loop.
func (r *Runner) View(ctx context.Context) (View, error) {
	return r.send(ctx, cmdView)
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) send(ctx context.Context, kind commandKind) (View, error) {
	cmd := command{kind: kind, ctx: ctx, reply: make(chan commandReply, 1)}

	select {
	case r.cmds <- cmd:
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-r.done:
		return View{}, ErrStopped
	}

	select {
	case rep := <-cmd.reply:
		return rep.view, rep.err
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-r.done:
		return View{}, ErrStopped
	}
}

func (r *Runner) handleCommand(cmd command) {
	var err error

	switch cmd.kind {
	case cmdStart:
		err = r.ctrl.Start(cmd.ctx)
		if err == nil {
			r.arm()
			r.logger.Info("run started", "levels", r.ctrl.TotalLevels())
		} else {
			r.logger.Warn("start failed", "error", err)
		}

	case cmdRetry:
		err = r.ctrl.RetryCurrentLevel(cmd.ctx)
		if err == nil {
			r.arm()
			r.logger.Info("level retry", "level", r.ctrl.LevelIndex())
		} else {
			r.logger.Warn("retry failed", "error", err)
		}

	case cmdReset:
		r.cancel()
		r.ctrl.Reset()
		r.logger.Info("run reset")

	case cmdView:
	}

	cmd.reply <- commandReply{view: r.ctrl.View(), err: err}
}

// sample launches a detection unless one is already in flight.
func (r *Runner) sample(ctx context.Context) {
	if r.inflight {
		r.dropped++
		r.logger.Debug("sample dropped, detection in flight", "dropped", r.dropped)
		return
	}

	frame, ok := r.ctrl.Frame()
	if !ok || r.detector == nil {
		return
	}

	sampleCtx, cancel := context.WithCancel(ctx)
	r.inflight = true
	r.cancelSample = cancel
	gen := r.sched.Generation()

	go func() {
		defer cancel()
		snap, err := r.detector.Estimate(sampleCtx, frame)
		select {
		case r.results <- sampleResult{generation: gen, snap: snap, err: err}:
		case <-r.done:
		}
	}()
}

func (r *Runner) finishSample(res sampleResult) {
	if res.generation != r.sched.Generation() {
		// Stale result from a cancelled run.
		return
	}
	r.inflight = false
	r.cancelSample = nil

	if res.err != nil {
		r.logger.Warn("pose detection failed", "error", fmt.Errorf("%w: %w", ErrDetection, res.err))
		return
	}

	score, err := r.ctrl.Sample(res.snap)
	if err != nil {
		r.logger.Debug("sample ignored", "error", err)
		return
	}
	r.logger.Debug("sample scored",
		"level", r.ctrl.LevelIndex(),
		"score", score,
		"keypoints", res.snap.Len(),
		"anchors", r.ctrl.cfg.Scorer.Valid(res.snap),
	)
}

// sync cancels the scheduler after a terminal transition and restarts
// the countdown when the level changed.
func (r *Runner) sync() {
	switch r.ctrl.Status() {
	case RunRunning:
		if idx := r.ctrl.LevelIndex(); idx != r.level {
			r.logger.Info("level advanced", "level", idx)
			r.level = idx
			r.sched.RestartCountdown()
		}
	case RunCompleted:
		if r.sched.Armed() {
			r.cancel()
			r.logger.Info("run completed", "elapsed", FormatClock(r.ctrl.Elapsed()))
		}
	case RunFailed:
		if r.sched.Armed() {
			r.cancel()
			r.logger.Info("level failed", "level", r.ctrl.LevelIndex())
		}
	}
}

func (r *Runner) arm() {
	r.cancel()
	r.sched.Arm()
	r.level = r.ctrl.LevelIndex()
}

// cancel stops every timing signal and abandons any in-flight detection.
func (r *Runner) cancel() {
	r.sched.Cancel()
	if r.cancelSample != nil {
		r.cancelSample()
		r.cancelSample = nil
	}
	r.inflight = false
}

func (r *Runner) stop() {
	r.cancel()
	if r.ctrl.Status() != RunNotStarted {
		r.ctrl.Reset()
	}
}
