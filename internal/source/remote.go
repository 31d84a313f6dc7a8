package source

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/pose-match/internal/pose"
)

// Remote is a source fed by a client that runs the pose model itself,
// such as a browser. The client reports camera readiness and pushes
// keypoints; Estimate hands out the newest unread push.
type Remote struct {
	mu        sync.Mutex
	ready     bool
	seq       uint64
	consumed  uint64
	latest    pose.Snapshot
	notify    chan struct{}
	onRelease func()
}

// NewRemote creates a remote source. onRelease, if set, is called when the
// game releases the camera so the client can stop its stream.
func NewRemote(onRelease func()) *Remote {
	return &Remote{
		notify:    make(chan struct{}),
		onRelease: onRelease,
	}
}

// SetCameraReady records whether the client has a working camera.
func (r *Remote) SetCameraReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = ready
}

// Push stores a new snapshot from the client.
func (r *Remote) Push(snap pose.Snapshot) {
	r.mu.Lock()
	r.seq++
	r.latest = snap
	ch := r.notify
	r.notify = make(chan struct{})
	r.mu.Unlock()

	close(ch)
}

// Acquire succeeds once the client has reported a ready camera.
func (r *Remote) Acquire(ctx context.Context) (pose.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return nil, ErrCameraUnavailable
	}
	return &remoteVideo{remote: r}, nil
}

// Estimate waits for a push newer than the last one handed out.
func (r *Remote) Estimate(ctx context.Context, _ pose.Frame) (pose.Snapshot, error) {
	for {
		r.mu.Lock()
		if r.seq > r.consumed {
			r.consumed = r.seq
			snap := r.latest
			r.mu.Unlock()
			return snap, nil
		}
		ch := r.notify
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return pose.Snapshot{}, ctx.Err()
		}
	}
}

type remoteVideo struct {
	remote *Remote
	once   sync.Once
}

func (v *remoteVideo) Frame() pose.Frame {
	v.remote.mu.Lock()
	defer v.remote.mu.Unlock()
	return pose.Frame{Seq: v.remote.seq, At: time.Now()}
}

func (v *remoteVideo) Close() error {
	v.once.Do(func() {
		if v.remote.onRelease != nil {
			v.remote.onRelease()
		}
	})
	return nil
}
