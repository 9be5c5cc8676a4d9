package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose/posetest"
)

// MockDetector is a test implementation of the Detector interface.
// It replays preset detections in order, looping at the end.
type MockDetector struct {
	mu         sync.Mutex
	detections []*Detection
	next       int
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector producing COCO-ordered keypoints.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetection makes every Detect call return d.
func (m *MockDetector) SetDetection(d *Detection) {
	m.SetSequence(d)
}

// SetSequence makes Detect return ds in order, starting over after the last.
func (m *MockDetector) SetSequence(ds ...*Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = ds
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next preset detection or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.detections) == 0 {
		return nil, nil
	}
	d := m.detections[m.next%len(m.detections)]
	m.next++
	return d, nil
}

// Mapping returns pose.DetectorCOCO17.
func (m *MockDetector) Mapping() string {
	return pose.DetectorCOCO17
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SquatDetection returns a side-view squat with the given hip and knee
// angles and torso lean, in COCO order.
func SquatDetection(hip, knee, back float64) *Detection {
	return &Detection{Keypoints: posetest.Squat(hip, knee, back).Raw()}
}

// PlankDetection returns a forearm plank with the given hip sag.
func PlankDetection(sag float64) *Detection {
	return &Detection{Keypoints: posetest.Plank(sag, 0).Raw()}
}

// SquatRepSequence returns detections for one squat repetition reaching
// depth, with hold frames at the bottom. Knee angle follows the hip.
func SquatRepSequence(depth float64, hold int) []*Detection {
	var angles []float64
	for a := 170.0; a > depth; a -= 10 {
		angles = append(angles, a)
	}
	for range hold + 1 {
		angles = append(angles, depth)
	}
	for a := depth + 10; a <= 170; a += 10 {
		angles = append(angles, a)
	}

	out := make([]*Detection, len(angles))
	for i, a := range angles {
		out[i] = SquatDetection(a, min(a+20, 170), 8)
	}
	return out
}
