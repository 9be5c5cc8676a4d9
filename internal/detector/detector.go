// Package detector runs a pose estimation model over camera frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

// Detection is one frame's keypoints in the detector's native order.
type Detection struct {
	Keypoints []pose.RawKeypoint `json:"keypoints"`
}

// Empty reports whether nobody was detected.
func (d *Detection) Empty() bool {
	return d == nil || len(d.Keypoints) == 0
}

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame. It returns nil when nobody is in frame.
	Detect(frame *gocv.Mat) (*Detection, error)

	// Mapping returns the id of the keypoint layout Detect produces,
	// suitable for pose.MappingFor.
	Mapping() string

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinConfidence is the minimum person detection confidence (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the pose service script location.
	ScriptPath string

	// Python overrides the interpreter used to run the script.
	Python string

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
