package app

import (
	"errors"
	"log"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/capture"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

// runPipeline is the main detection loop. Each tick reads a frame, detects
// a pose, feeds the session, records the update and notifies callbacks.
// Frames are dropped while the app is disabled.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				log.Println("End of recording")
				return
			}
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			d, err := a.detector.Detect(frame)
			frame.Close()
			if err != nil {
				log.Printf("Error detecting pose: %v", err)
				continue
			}

			var f session.Frame
			if d != nil {
				f.Keypoints = d.Keypoints
			}
			f.At = a.config.Clock()
			a.process(f)
		}
	}
}

// process feeds one frame through the session and fans the update out.
func (a *App) process(f session.Frame) session.Update {
	a.sessMu.Lock()
	u := a.session.Submit(f)
	if a.recorder != nil {
		if err := a.recorder.Record(u); err != nil {
			log.Printf("Failed to record update: %v", err)
		}
	}
	a.sessMu.Unlock()

	if u.Event != nil {
		log.Printf("%s rep %d (depth %.0f)", u.Event.Kind, u.Event.Count, u.Event.Depth)
	}

	a.mu.RLock()
	callbacks := a.callbacks
	a.mu.RUnlock()
	for _, fn := range callbacks {
		fn(u)
	}
	return u
}
