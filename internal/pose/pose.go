package pose

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Confidence gating constants.
const (
	// DefaultConfidenceThreshold is the confidence a keypoint must exceed to be kept.
	DefaultConfidenceThreshold = 0.3
	// MinValidKeypoints is the minimum number of kept keypoints for a valid pose.
	MinValidKeypoints = 5
)

// ErrInvalidThreshold is returned for a confidence gate outside
// [DefaultConfidenceThreshold, 1).
var ErrInvalidThreshold = errors.New("invalid confidence threshold")

// ValidateThreshold checks a keypoint confidence gate. Confidences are
// clamped to 1, so a gate of 1 or more would reject every keypoint.
func ValidateThreshold(t float64) error {
	if !(t >= DefaultConfidenceThreshold && t < 1) {
		return fmt.Errorf("%w: %v is outside [%v, 1)", ErrInvalidThreshold, t, DefaultConfidenceThreshold)
	}
	return nil
}

// Pose is one frame's normalized detection result.
// Keypoints is always fully populated and ordered by Landmark; gated
// keypoints hold the zero Keypoint.
type Pose struct {
	Keypoints [NumLandmarks]Keypoint `json:"keypoints"`
	Score     float64                `json:"score"`
}

// At returns the keypoint for landmark l.
func (p *Pose) At(l Landmark) Keypoint {
	if p == nil || !l.Valid() {
		return Keypoint{}
	}
	return p.Keypoints[l]
}

// Visible reports whether every given landmark cleared the confidence gate.
func (p *Pose) Visible(ls ...Landmark) bool {
	if p == nil {
		return false
	}
	for _, l := range ls {
		if !p.At(l).Valid() {
			return false
		}
	}
	return true
}

// ValidCount returns the number of keypoints that cleared the gate.
func (p *Pose) ValidCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, k := range p.Keypoints {
		if k.Valid() {
			n++
		}
	}
	return n
}

// MeanConfidence returns the mean confidence of the given landmarks.
func (p *Pose) MeanConfidence(ls ...Landmark) float64 {
	if p == nil || len(ls) == 0 {
		return 0
	}
	conf := make([]float64, len(ls))
	for i, l := range ls {
		conf[i] = p.At(l).Confidence
	}
	return stat.Mean(conf, nil)
}

// Normalize maps detector-native keypoints onto the canonical landmark set
// using the default confidence threshold. It returns false when fewer than
// MinValidKeypoints survive the gate, so partial detections never reach
// scoring or counting.
func Normalize(raw []RawKeypoint, m SourceMapping) (*Pose, bool) {
	return NormalizeWithThreshold(raw, m, DefaultConfidenceThreshold)
}

// NormalizeWithThreshold is Normalize with an explicit confidence threshold.
func NormalizeWithThreshold(raw []RawKeypoint, m SourceMapping, threshold float64) (*Pose, bool) {
	p := &Pose{}
	kept := make([]float64, 0, NumLandmarks)

	for l := Landmark(0); l < NumLandmarks; l++ {
		idx := m.Source(l)
		if idx < 0 || idx >= len(raw) {
			continue
		}
		r := raw[idx]
		if !r.finite() || r.Confidence <= threshold {
			continue
		}
		// Some detectors report logits rather than probabilities.
		c := min(r.Confidence, 1)
		p.Keypoints[l] = Keypoint{
			Position:   Point2D{X: r.X, Y: r.Y},
			Confidence: c,
		}
		kept = append(kept, c)
	}

	if len(kept) < MinValidKeypoints {
		return nil, false
	}

	p.Score = stat.Mean(kept, nil)
	return p, true
}
