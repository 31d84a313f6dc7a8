// Package pose holds the keypoint model produced by an external pose
// estimator and the scorer that reduces a keypoint set to a percentage.
package pose

import "sort"

// Anchor keypoint names used for scoring.
const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
)

// DefaultAnchors is the fixed anchor set scored for every sample.
var DefaultAnchors = []string{Nose, LeftShoulder, RightShoulder, LeftHip, RightHip}

// Keypoint is a named anatomical landmark reported by the estimator.
type Keypoint struct {
	Name  string  `json:"name" yaml:"name"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Score float64 `json:"score" yaml:"score"` // Detector confidence, 0.0-1.0
}

// Snapshot is the set of keypoints detected at one sampling instant.
// It is owned by the sampling cycle that produced it and never persisted.
type Snapshot struct {
	Keypoints []Keypoint `json:"keypoints" yaml:"keypoints"`
}

// Find returns the first keypoint with the given name.
func (s Snapshot) Find(name string) (Keypoint, bool) {
	for _, kp := range s.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Len returns the number of keypoints in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Keypoints)
}

// FromScores builds a snapshot with zero positions from a name -> confidence map.
// Handy for sources that only model confidence.
func FromScores(scores map[string]float64) Snapshot {
	snap := Snapshot{Keypoints: make([]Keypoint, 0, len(scores))}
	for _, name := range DefaultAnchors {
		if v, ok := scores[name]; ok {
			snap.Keypoints = append(snap.Keypoints, Keypoint{Name: name, Score: v})
		}
	}
	extra := make([]string, 0, len(scores))
	for name := range scores {
		if !isAnchor(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		snap.Keypoints = append(snap.Keypoints, Keypoint{Name: name, Score: scores[name]})
	}
	return snap
}

func isAnchor(name string) bool {
	for _, a := range DefaultAnchors {
		if a == name {
			return true
		}
	}
	return false
}
