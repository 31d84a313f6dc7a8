package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/pose-match/internal/pose"
)

func init() {
	Register("replay", "Replays a recorded keypoint YAML file (--recording)", func(opts Options) (Source, error) {
		if opts.Recording == "" {
			return Source{}, errors.New("source: replay needs a recording path")
		}
		rec, err := LoadRecording(opts.Recording)
		if err != nil {
			return Source{}, err
		}
		return Source{
			Provider: NewStaticCamera(),
			Detector: NewReplay(rec),
		}, nil
	})
}

// Recording is a sequence of keypoint frames captured from an estimator.
type Recording struct {
	LatencyMS int              `yaml:"latency_ms"` // Simulated estimator latency
	Frames    []RecordingFrame `yaml:"frames"`
}

// RecordingFrame is one recorded snapshot, optionally held for several samples.
type RecordingFrame struct {
	Repeat    int             `yaml:"repeat"`
	Keypoints []pose.Keypoint `yaml:"keypoints"`
	Fail      string          `yaml:"fail"` // Non-empty simulates a detector error
}

// LoadRecording reads a recording from a YAML file.
func LoadRecording(path string) (Recording, error) {
	var rec Recording

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("source: failed to read recording %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("source: failed to parse recording %s: %w", path, err)
	}
	if len(rec.Frames) == 0 {
		return rec, fmt.Errorf("source: recording %s has no frames", path)
	}
	return rec, nil
}

// Replay plays a recording back one sample at a time, looping at the end.
type Replay struct {
	mu      sync.Mutex
	rec     Recording
	frame   int
	repeats int
}

// NewReplay creates a replay detector over rec.
func NewReplay(rec Recording) *Replay {
	return &Replay{rec: rec}
}

// Estimate returns the next recorded snapshot.
func (r *Replay) Estimate(ctx context.Context, _ pose.Frame) (pose.Snapshot, error) {
	if r.rec.LatencyMS > 0 {
		timer := time.NewTimer(time.Duration(r.rec.LatencyMS) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return pose.Snapshot{}, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rec.Frames) == 0 {
		return pose.Snapshot{}, errors.New("source: empty recording")
	}

	cur := r.rec.Frames[r.frame]
	r.repeats++
	if r.repeats >= max(cur.Repeat, 1) {
		r.repeats = 0
		r.frame = (r.frame + 1) % len(r.rec.Frames)
	}

	if cur.Fail != "" {
		return pose.Snapshot{}, errors.New(cur.Fail)
	}
	return pose.Snapshot{Keypoints: append([]pose.Keypoint(nil), cur.Keypoints...)}, nil
}
