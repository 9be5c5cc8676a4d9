// Package capture reads video frames for pose detection using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings. Rep tracking needs a steadier frame rate than
// presence detection does, so the default is well above a webcam's idle rate.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned once a finite source has no frames left.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// videoSource reads from a camera device or a video file.
type videoSource struct {
	source  any
	finite  bool
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera returns a Camera for the given device ID.
func NewCamera(deviceID int) Camera {
	return &videoSource{
		source: deviceID,
		fps:    DefaultFPS,
	}
}

// NewVideoFile returns a Camera that plays back a recorded workout.
// ReadFrame returns ErrEndOfStream after the last frame.
func NewVideoFile(path string) Camera {
	return &videoSource{
		source: path,
		finite: true,
		fps:    DefaultFPS,
	}
}

// Open starts capturing at 640x480.
func (c *videoSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.source)
	if err != nil {
		return fmt.Errorf("open video source %v: %w", c.source, err)
	}

	if !c.finite {
		capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	} else if fps := int(capture.Get(gocv.VideoCaptureFPS)); fps > 0 {
		c.fps = fps
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close releases the capture device.
func (c *videoSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame.
// The caller is responsible for closing the returned Mat.
func (c *videoSource) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if c.finite {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		if c.finite {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the capture rate. Values less than or equal to 0 are ignored.
// Video files keep their recorded rate.
func (c *videoSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil && !c.finite {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current capture rate.
func (c *videoSource) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen reports whether the source is open.
func (c *videoSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
