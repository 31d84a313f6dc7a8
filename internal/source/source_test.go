package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/pose-match/internal/pose"
)

func TestRegistryListsLocalSources(t *testing.T) {
	list := List()
	if len(list) < 2 {
		t.Fatalf("List() = %v, want at least replay and synthetic", list)
	}
	if list[0].ID != "replay" || list[1].ID != "synthetic" {
		t.Errorf("List() not sorted: %v", list)
	}
	if !Exists("synthetic") || Exists("webcam") {
		t.Error("Exists() reported wrong membership")
	}
	if _, err := Create("webcam", Options{}); err == nil {
		t.Error("Create() of unknown source should fail")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() should panic")
		}
	}()
	Register("synthetic", "dup", func(Options) (Source, error) { return Source{}, nil })
}

func TestSyntheticDeterministic(t *testing.T) {
	a := NewSynthetic(42)
	b := NewSynthetic(42)

	for seq := uint64(1); seq <= 20; seq++ {
		frame := pose.Frame{Seq: seq, Width: 640, Height: 480}
		sa, err := a.Estimate(context.Background(), frame)
		if err != nil {
			t.Fatal(err)
		}
		sb, _ := b.Estimate(context.Background(), frame)
		for i := range sa.Keypoints {
			if sa.Keypoints[i] != sb.Keypoints[i] {
				t.Fatalf("seq %d keypoint %d differs: %+v vs %+v", seq, i, sa.Keypoints[i], sb.Keypoints[i])
			}
		}
	}
}

func TestSyntheticRampReachesPass(t *testing.T) {
	s := NewSynthetic(7)
	s.MissChance = 0
	s.Jitter = 0
	scorer := pose.NewScorer()

	early, _ := s.Estimate(context.Background(), pose.Frame{Seq: 1})
	late, _ := s.Estimate(context.Background(), pose.Frame{Seq: s.RampFrames - 1})

	if got := scorer.Score(early); got >= 80 {
		t.Errorf("early score = %v, want below 80", got)
	}
	if got := scorer.Score(late); got < 80 {
		t.Errorf("late score = %v, want at least 80", got)
	}
}

func TestSyntheticHonoursCancel(t *testing.T) {
	s := NewSynthetic(1)
	s.Latency = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Estimate(ctx, pose.Frame{Seq: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Estimate() error = %v, want context.Canceled", err)
	}
}

func writeRecording(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayLoopsWithRepeats(t *testing.T) {
	path := writeRecording(t, `
frames:
  - repeat: 2
    keypoints:
      - {name: nose, x: 10, y: 20, score: 0.5}
  - fail: model warming up
  - keypoints:
      - {name: nose, score: 0.9}
`)

	src, err := Create("replay", Options{Recording: path})
	if err != nil {
		t.Fatalf("Create(replay) error = %v", err)
	}

	want := []struct {
		score float64
		fail  bool
	}{
		{0.5, false}, {0.5, false}, {0, true}, {0.9, false}, {0.5, false},
	}
	for i, w := range want {
		snap, err := src.Detector.Estimate(context.Background(), pose.Frame{})
		if w.fail {
			if err == nil {
				t.Errorf("call %d: expected error", i)
			}
			continue
		}
		if err != nil {
			t.Fatalf("call %d: error = %v", i, err)
		}
		kp, ok := snap.Find(pose.Nose)
		if !ok || kp.Score != w.score {
			t.Errorf("call %d: nose = %+v, want score %v", i, kp, w.score)
		}
	}
}

func TestReplayRequiresRecording(t *testing.T) {
	if _, err := Create("replay", Options{}); err == nil {
		t.Error("Create(replay) without recording should fail")
	}
	if _, err := LoadRecording(writeRecording(t, "frames: []\n")); err == nil {
		t.Error("LoadRecording() of empty recording should fail")
	}
}

func TestStaticCamera(t *testing.T) {
	cam := NewStaticCamera()
	video, err := cam.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	first := video.Frame()
	second := video.Frame()
	if second.Seq != first.Seq+1 || first.Width != 640 {
		t.Errorf("frames = %+v, %+v", first, second)
	}

	cam.Err = ErrCameraUnavailable
	if _, err := cam.Acquire(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("Acquire() error = %v, want ErrCameraUnavailable", err)
	}
}

func TestRemote(t *testing.T) {
	released := make(chan struct{}, 1)
	r := NewRemote(func() { released <- struct{}{} })

	if _, err := r.Acquire(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("Acquire() before ready error = %v", err)
	}

	r.SetCameraReady(true)
	video, err := r.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	got := make(chan pose.Snapshot, 1)
	go func() {
		snap, err := r.Estimate(context.Background(), video.Frame())
		if err == nil {
			got <- snap
		}
	}()

	r.Push(pose.FromScores(map[string]float64{pose.Nose: 0.7}))
	select {
	case snap := <-got:
		if kp, _ := snap.Find(pose.Nose); kp.Score != 0.7 {
			t.Errorf("nose = %v, want 0.7", kp.Score)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Estimate() did not return after Push()")
	}

	// The same push is not handed out twice.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Estimate(ctx, video.Frame()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Estimate() with no new push error = %v, want deadline", err)
	}

	video.Close()
	video.Close()
	if len(released) != 1 {
		t.Errorf("onRelease called %d times, want 1", len(released))
	}
}
