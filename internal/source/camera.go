package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vovakirdan/pose-match/internal/pose"
)

// ErrCameraUnavailable is returned when no camera can be acquired.
var ErrCameraUnavailable = errors.New("source: camera unavailable")

// StaticCamera is a VideoProvider for local sources. Its frames carry no
// pixels, only a sequence number and timestamp the detectors key off.
type StaticCamera struct {
	Width  int
	Height int

	// Err, when set, makes Acquire fail.
	Err error
}

// NewStaticCamera returns a 640x480 camera.
func NewStaticCamera() *StaticCamera {
	return &StaticCamera{Width: 640, Height: 480}
}

// Acquire opens a new stream.
func (c *StaticCamera) Acquire(ctx context.Context) (pose.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return &staticVideo{width: c.Width, height: c.Height}, nil
}

type staticVideo struct {
	mu     sync.Mutex
	seq    uint64
	width  int
	height int
}

func (v *staticVideo) Frame() pose.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	return pose.Frame{Seq: v.seq, At: time.Now(), Width: v.width, Height: v.height}
}

// Close is a no-op; there is no device behind a static camera.
func (v *staticVideo) Close() error { return nil }
