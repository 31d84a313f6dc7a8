package source

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/pose-match/internal/pose"
)

func init() {
	Register("synthetic", "Simulated player settling into each pose", func(opts Options) (Source, error) {
		return Source{
			Provider: NewStaticCamera(),
			Detector: NewSynthetic(opts.Seed),
		}, nil
	})
}

// Synthetic simulates a player: anchor confidences climb from Base to Peak
// over RampFrames frames, then start over. Jitter and occasional misses
// keep it from being a straight line.
type Synthetic struct {
	Base       float64
	Peak       float64
	Jitter     float64
	MissChance float64 // Probability an anchor is reported below threshold
	RampFrames uint64
	Latency    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic creates a synthetic detector. Seed 0 uses the current time.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthetic{
		Base:       0.35,
		Peak:       0.95,
		Jitter:     0.05,
		MissChance: 0.05,
		RampFrames: 120, // 12s at 100ms sampling
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Estimate returns a synthetic snapshot for frame.
func (s *Synthetic) Estimate(ctx context.Context, frame pose.Frame) (pose.Snapshot, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return pose.Snapshot{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ramp := s.RampFrames
	if ramp == 0 {
		ramp = 1
	}
	progress := float64(frame.Seq%ramp) / float64(ramp)
	mean := s.Base + progress*(s.Peak-s.Base)

	snap := pose.Snapshot{Keypoints: make([]pose.Keypoint, 0, len(pose.DefaultAnchors))}
	for i, name := range pose.DefaultAnchors {
		score := mean + (s.rng.Float64()*2-1)*s.Jitter
		if s.rng.Float64() < s.MissChance {
			score = s.rng.Float64() * pose.DefaultMinConfidence
		}
		snap.Keypoints = append(snap.Keypoints, pose.Keypoint{
			Name:  name,
			X:     float64(frame.Width)/2 + float64(i-2)*40,
			Y:     float64(frame.Height) / float64(len(pose.DefaultAnchors)+1) * float64(i+1),
			Score: pose.Clamp(score, 0, 1),
		})
	}
	return snap, nil
}
