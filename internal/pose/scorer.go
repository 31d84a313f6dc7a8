package pose

// DefaultMinConfidence is the confidence a keypoint must exceed to count.
const DefaultMinConfidence = 0.3

// Scorer reduces a snapshot to a percentage in [0, 100].
//
// The result is the mean confidence of the anchor keypoints that clear
// MinConfidence, times 100. It reflects how confidently the anchors were
// detected, not how closely the pose resembles a reference.
type Scorer struct {
	Anchors       []string
	MinConfidence float64
}

// NewScorer returns a scorer over DefaultAnchors with DefaultMinConfidence.
func NewScorer() Scorer {
	return Scorer{
		Anchors:       DefaultAnchors,
		MinConfidence: DefaultMinConfidence,
	}
}

// Score returns the similarity percentage for snap.
// A snapshot with no anchor above the threshold scores 0.
func (s Scorer) Score(snap Snapshot) float64 {
	anchors := s.Anchors
	if len(anchors) == 0 {
		anchors = DefaultAnchors
	}

	total := 0.0
	valid := 0
	for _, name := range anchors {
		kp, ok := snap.Find(name)
		if !ok || kp.Score <= s.MinConfidence {
			continue
		}
		total += kp.Score
		valid++
	}

	if valid == 0 {
		return 0
	}
	return Clamp(total/float64(valid)*100, 0, 100)
}

// Valid reports how many anchors clear the threshold in snap.
func (s Scorer) Valid(snap Snapshot) int {
	anchors := s.Anchors
	if len(anchors) == 0 {
		anchors = DefaultAnchors
	}
	n := 0
	for _, name := range anchors {
		if kp, ok := snap.Find(name); ok && kp.Score > s.MinConfidence {
			n++
		}
	}
	return n
}

// Clamp restricts v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
