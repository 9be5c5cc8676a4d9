// Package app runs the live workout pipeline: camera, pose detection,
// form scoring and rep counting, and workout persistence.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mitchellnkeo/CheckMyForm/internal/capture"
	"github.com/mitchellnkeo/CheckMyForm/internal/detector"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// ErrNotRunning is returned by Stop when the pipeline was never started.
var ErrNotRunning = errors.New("pipeline is not running")

// Config holds configuration options for the application.
type Config struct {
	// Store persists the workout when set.
	Store    *store.Store
	Registry *profile.Registry
	// Profile names the exercise to track.
	Profile  string
	CameraID int
	// VideoFile replaces the camera with a recording when set.
	VideoFile string
	FPS       int
	// MinConfidence is the keypoint confidence gate; 0 keeps the default.
	MinConfidence float64

	// Camera and Detector override the defaults built from the fields above.
	Camera   capture.Camera
	Detector detector.Detector
	// Clock stamps frames; defaults to time.Now.
	Clock func() time.Time
}

// App is the main application that turns camera frames into form feedback.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	profile  *profile.Profile
	mapping  pose.SourceMapping

	mu        sync.RWMutex
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}
	callbacks []func(session.Update)

	// sessMu guards the session and recorder, which the pipeline
	// goroutine drives and Summary reads.
	sessMu   sync.Mutex
	session  *session.Session
	recorder *store.Recorder
}

// New creates a new App with the given configuration.
func New(config Config) (*App, error) {
	if config.Registry == nil {
		config.Registry = profile.NewRegistry()
	}
	if config.Profile == "" {
		config.Profile = profile.NameSquat
	}
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.MinConfidence != 0 {
		if err := pose.ValidateThreshold(config.MinConfidence); err != nil {
			return nil, err
		}
	}

	prof, err := config.Registry.Get(config.Profile)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		profile:  prof,
		enabled:  true,
	}

	if a.camera == nil {
		if config.VideoFile != "" {
			a.camera = capture.NewVideoFile(config.VideoFile)
		} else {
			a.camera = capture.NewCamera(config.CameraID)
		}
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe pose detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.mapping, err = pose.MappingFor(a.detector.Mapping())
	if err != nil {
		return nil, fmt.Errorf("detector mapping: %w", err)
	}

	return a, nil
}

// SetEnabled pauses or resumes feeding frames to the session.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frames are being analyzed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnUpdate registers fn to receive every session update. Callbacks run on
// the pipeline goroutine and must not block.
func (a *App) OnUpdate(fn func(session.Update)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Profile returns the tracked exercise.
func (a *App) Profile() *profile.Profile {
	return a.profile
}

// Start opens the camera, begins a workout and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	if err := a.begin(); err != nil {
		a.camera.Close()
		return err
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Printf("Tracking %s at %d fps", a.profile.Title(), a.camera.FPS())
	return nil
}

// begin starts a fresh session and, with a store, its workout record.
func (a *App) begin() error {
	s, err := session.New(uuid.NewString(), a.profile, a.mapping)
	if err != nil {
		return err
	}
	if a.config.MinConfidence != 0 {
		if err := s.SetConfidenceThreshold(a.config.MinConfidence); err != nil {
			return err
		}
	}

	var rec *store.Recorder
	if a.config.Store != nil {
		rec, err = a.config.Store.NewRecorder(s.Summary(), a.config.Clock())
		if err != nil {
			return err
		}
	}

	a.sessMu.Lock()
	a.session = s
	a.recorder = rec
	a.sessMu.Unlock()
	return nil
}

// Done is closed when the pipeline goroutine exits, either after Stop or
// at the end of a recording.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline, finishes the workout and releases the camera
// and detector. It returns the final session summary.
func (a *App) Stop() (session.Summary, error) {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return session.Summary{}, ErrNotRunning
	}

	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}

	a.sessMu.Lock()
	defer a.sessMu.Unlock()

	sum := a.session.Summary()
	if a.recorder != nil {
		if _, err := a.recorder.Finish(sum); err != nil {
			return sum, err
		}
	}

	log.Printf("Workout finished: %d reps, %d half reps, average form %.0f", sum.Reps, sum.HalfReps, sum.AvgScore)
	return sum, nil
}

// Summary returns the current session summary.
func (a *App) Summary() session.Summary {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()
	if a.session == nil {
		return session.Summary{Profile: a.profile.Name, Detector: a.mapping.Name}
	}
	return a.session.Summary()
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
