package pose

import (
	"context"
	"time"
)

// Frame is one video frame handed to a Detector.
// Data is opaque to the core; local sources leave it empty.
type Frame struct {
	Seq    uint64
	At     time.Time
	Width  int
	Height int
	Data   []byte
}

// Detector estimates keypoints for a frame. Calls may be slow and are
// expected to honour ctx cancellation.
type Detector interface {
	Estimate(ctx context.Context, frame Frame) (Snapshot, error)
}

// Video is an acquired camera stream.
type Video interface {
	// Frame returns the most recent frame.
	Frame() Frame

	// Close releases the camera.
	Close() error
}

// VideoProvider acquires a camera stream.
type VideoProvider interface {
	Acquire(ctx context.Context) (Video, error)
}
