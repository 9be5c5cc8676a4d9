// Package tray provides a system tray interface showing live rep counts
// and form feedback.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	title      string
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuStatus   *systray.MenuItem
	menuFeedback *systray.MenuItem
}

// New creates a new Tray for the named exercise with tracking enabled.
func New(exercise string) *Tray {
	return &Tray{
		title:   exercise,
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu, e.g. when a recording ends.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("CheckMyForm")
	systray.SetTooltip("CheckMyForm: " + t.title)

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("● Tracking", "Pause or resume form tracking")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(StatusLine(t.title, session.Update{}), "Reps and form score")
	t.menuStatus.Disable()
	t.menuFeedback = systray.AddMenuItem("Waiting for a pose", "Latest form feedback")
	t.menuFeedback.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Finish the workout and quit")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Tracking")
	} else {
		t.menuToggle.SetTitle("○ Paused")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the dashboard menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update refreshes the status and feedback lines from a session update.
func (t *Tray) Update(u session.Update) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(StatusLine(t.title, u))
	}
	if t.menuFeedback != nil {
		t.menuFeedback.SetTitle(FeedbackLine(u))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// StatusLine formats the rep count and form score, e.g. "Squat: 3 reps, form 86".
func StatusLine(exercise string, u session.Update) string {
	line := fmt.Sprintf("%s: %d reps", exercise, u.Reps)
	if u.Reps == 1 {
		line = fmt.Sprintf("%s: 1 rep", exercise)
	}
	if u.HalfReps > 0 {
		line += fmt.Sprintf(" (+%d partial)", u.HalfReps)
	}
	if u.Hold > 0 {
		line += fmt.Sprintf(", hold %.1fs", u.Hold.Seconds())
	}
	if u.Form != nil {
		line += fmt.Sprintf(", form %.0f", u.Form.Score)
	}
	return line
}

// FeedbackLine returns the message to show for an update.
func FeedbackLine(u session.Update) string {
	switch {
	case u.Form != nil:
		return u.Form.Feedback.Message
	case u.Err != nil:
		return "Step into view"
	default:
		return "Waiting for a pose"
	}
}
