// Package pose provides the canonical body landmark vocabulary and the
// confidence-gated pose container shared by form analysis and rep counting.
package pose

import (
	"fmt"
	"math"
)

// Landmark identifies one of the 17 canonical body points.
// The order follows the COCO keypoint convention so call sites can index positionally.
type Landmark int

const (
	Nose Landmark = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

// NumLandmarks is the fixed size of every pose.
const NumLandmarks = 17

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// String returns the snake case name of the landmark.
func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// Valid reports whether l is one of the canonical landmarks.
func (l Landmark) Valid() bool {
	return l >= 0 && l < NumLandmarks
}

// Mirror returns the landmark on the opposite side of the body.
// Nose maps to itself.
func (l Landmark) Mirror() Landmark {
	if l == Nose || !l.Valid() {
		return l
	}
	// Paired landmarks alternate left, right starting at LeftEye.
	if (l-LeftEye)%2 == 0 {
		return l + 1
	}
	return l - 1
}

// MarshalText encodes the landmark by name.
func (l Landmark) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid landmark %d", int(l))
	}
	return []byte(landmarkNames[l]), nil
}

// UnmarshalText decodes a landmark name.
func (l *Landmark) UnmarshalText(text []byte) error {
	parsed, err := ParseLandmark(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLandmark returns the landmark with the given snake case name.
func ParseLandmark(name string) (Landmark, error) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), nil
		}
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// Point2D is a position in normalized frame coordinates.
// Both axes run 0..1 and Y grows downward, as image coordinates do.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint is one landmark's observation in a single frame.
type Keypoint struct {
	Position   Point2D `json:"position"`
	Confidence float64 `json:"confidence"`
}

// Valid reports whether the keypoint cleared the confidence gate.
// Gated keypoints carry confidence 0 and must not be used geometrically.
func (k Keypoint) Valid() bool {
	return k.Confidence > 0
}

// RawKeypoint is a detector-native observation before normalization.
type RawKeypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

func (r RawKeypoint) finite() bool {
	return !math.IsNaN(r.X) && !math.IsInf(r.X, 0) &&
		!math.IsNaN(r.Y) && !math.IsInf(r.Y, 0) &&
		!math.IsNaN(r.Confidence) && !math.IsInf(r.Confidence, 0)
}
