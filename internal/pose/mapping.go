package pose

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDetector is returned when no source mapping is registered for a detector.
var ErrUnknownDetector = errors.New("unknown detector")

// NoSource marks a canonical landmark the detector has no equivalent for.
const NoSource = -1

// SourceMapping maps each canonical landmark to a detector-native keypoint index.
type SourceMapping struct {
	Name    string
	Indices [NumLandmarks]int
}

// Source returns the detector-native index for l, or NoSource.
func (m SourceMapping) Source(l Landmark) int {
	if !l.Valid() {
		return NoSource
	}
	return m.Indices[l]
}

// Detector identifiers with built-in mappings.
const (
	DetectorCOCO17      = "coco-17"
	DetectorMediaPipe33 = "mediapipe-33"
)

// COCO17 is the identity mapping used by MoveNet, YOLO-pose and other
// detectors that emit the 17 COCO keypoints.
func COCO17() SourceMapping {
	m := SourceMapping{Name: DetectorCOCO17}
	for i := range m.Indices {
		m.Indices[i] = i
	}
	return m
}

// MediaPipe33 maps the BlazePose 33-point topology onto the canonical set.
// Inner/outer eye corners, mouth, hands and feet have no canonical equivalent
// and are dropped.
func MediaPipe33() SourceMapping {
	return SourceMapping{
		Name: DetectorMediaPipe33,
		Indices: [NumLandmarks]int{
			Nose:          0,
			LeftEye:       2,
			RightEye:      5,
			LeftEar:       7,
			RightEar:      8,
			LeftShoulder:  11,
			RightShoulder: 12,
			LeftElbow:     13,
			RightElbow:    14,
			LeftWrist:     15,
			RightWrist:    16,
			LeftHip:       23,
			RightHip:      24,
			LeftKnee:      25,
			RightKnee:     26,
			LeftAnkle:     27,
			RightAnkle:    28,
		},
	}
}

var mappings = map[string]func() SourceMapping{
	DetectorCOCO17:      COCO17,
	DetectorMediaPipe33: MediaPipe33,
	"movenet":           COCO17,
	"mediapipe":         MediaPipe33,
}

// MappingFor returns the source mapping registered for detectorID.
func MappingFor(detectorID string) (SourceMapping, error) {
	build, ok := mappings[detectorID]
	if !ok {
		return SourceMapping{}, fmt.Errorf("%w: %q", ErrUnknownDetector, detectorID)
	}
	return build(), nil
}

// Detectors lists the detector identifiers that have a mapping.
func Detectors() []string {
	ids := make([]string, 0, len(mappings))
	for id := range mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
