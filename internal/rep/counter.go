// Package rep counts exercise repetitions from a stream of primary-angle
// observations using a hysteresis state machine.
package rep

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

// AngleFunc extracts the primary angle from a pose.
type AngleFunc func(*pose.Pose) (float64, error)

// EventKind distinguishes full repetitions from shallow ones.
type EventKind string

const (
	// Full is a repetition that reached and held the bottom threshold.
	Full EventKind = "full"
	// Half is a repetition that left standing but never reached bottom.
	Half EventKind = "half"
)

// Durations is the time spent in each moving phase of one repetition.
type Durations struct {
	Descent time.Duration `json:"descent"`
	Bottom  time.Duration `json:"bottom"`
	Ascent  time.Duration `json:"ascent"`
}

// Total returns the length of the repetition.
func (d Durations) Total() time.Duration {
	return d.Descent + d.Bottom + d.Ascent
}

// Event is emitted when a repetition completes.
type Event struct {
	Kind EventKind `json:"kind"`
	// Count is the running total of events of this kind.
	Count int `json:"count"`
	// Depth is the smallest primary angle reached during the repetition.
	Depth     float64   `json:"depth"`
	Durations Durations `json:"durations"`
	At        time.Time `json:"at"`
}

// State is a snapshot of the counter.
type State struct {
	Phase      Phase     `json:"phase"`
	PhaseSince time.Time `json:"phase_since"`
	Reps       int       `json:"reps"`
	HalfReps   int       `json:"half_reps"`
}

type sample struct {
	angle float64
	at    time.Time
}

// Counter is the per-session repetition state machine. It is not safe for
// concurrent use; each session owns its own Counter.
type Counter struct {
	cfg     Config
	primary AngleFunc

	phase      Phase
	phaseSince time.Time
	reps       int
	halfReps   int
	window     []sample

	// Bookkeeping for the cycle in progress.
	cycleMin   float64
	ascentMax  float64
	bottomMin  float64
	reached    bool
	dwelling   bool
	dwellStart time.Time
	dwellRef   float64
	durations  Durations
}

// NewCounter returns a counter in the standing phase. primary extracts the
// angle the counter follows; it is only used by Observe.
func NewCounter(cfg Config, primary AngleFunc) *Counter {
	c := &Counter{cfg: cfg, primary: primary}
	c.Reset()
	return c
}

// Reset returns the counter to its initial state.
func (c *Counter) Reset() {
	c.phase = PhaseStanding
	c.phaseSince = time.Time{}
	c.reps, c.halfReps = 0, 0
	c.window = c.window[:0]
	c.resetCycle()
}

func (c *Counter) resetCycle() {
	c.cycleMin = math.Inf(1)
	c.ascentMax = math.Inf(-1)
	c.bottomMin = math.Inf(1)
	c.reached = false
	c.dwelling = false
	c.durations = Durations{}
}

// Phase returns the current phase.
func (c *Counter) Phase() Phase {
	return c.phase
}

// State returns a snapshot of the counter.
func (c *Counter) State() State {
	return State{Phase: c.phase, PhaseSince: c.phaseSince, Reps: c.reps, HalfReps: c.halfReps}
}

// Observe feeds one pose. A nil pose, hidden primary landmarks or a
// degenerate primary angle leave the state untouched.
func (c *Counter) Observe(p *pose.Pose, at time.Time) *Event {
	if p == nil || c.primary == nil || !c.cfg.Enabled {
		return nil
	}
	a, err := c.primary(p)
	if err != nil {
		return nil
	}
	return c.ObserveAngle(a, at)
}

// ObserveAngle feeds one primary-angle sample and returns the completed
// repetition, if any. Samples that are not finite or go back in time are
// ignored.
func (c *Counter) ObserveAngle(a float64, at time.Time) *Event {
	if !c.cfg.Enabled || math.IsNaN(a) || math.IsInf(a, 0) {
		return nil
	}
	if n := len(c.window); n > 0 && at.Before(c.window[n-1].at) {
		return nil
	}
	if c.phaseSince.IsZero() {
		c.phaseSince = at
	}

	c.window = append(c.window, sample{angle: a, at: at})
	if len(c.window) > c.cfg.Window {
		c.window = c.window[len(c.window)-c.cfg.Window:]
	}
	slope := c.slope()
	cfg := c.cfg

	switch c.phase {
	case PhaseStanding:
		if a < cfg.Standing && slope < 0 {
			c.resetCycle()
			c.cycleMin = a
			c.enter(PhaseDescending, at)
		}

	case PhaseDescending:
		c.cycleMin = math.Min(c.cycleMin, a)
		switch {
		case a >= cfg.Standing:
			return c.complete(at)
		case slope > 0 && a >= c.cycleMin+cfg.Band:
			c.dwelling = false
			c.ascentMax = a
			c.enter(PhaseAscending, at)
		case a <= cfg.Bottom:
			if c.dwelling && a > c.cycleMin+cfg.Band {
				c.dwelling = false
			}
			if !c.dwelling || a < c.dwellRef-cfg.Band {
				c.dwelling = true
				c.dwellStart = at
				c.dwellRef = a
			}
			if at.Sub(c.dwellStart) >= cfg.MinDwell {
				c.reached = true
				c.bottomMin = c.cycleMin
				c.enter(PhaseBottom, at)
			}
		default:
			if a > c.cycleMin+cfg.Band {
				c.dwelling = false
			}
		}

	case PhaseBottom:
		c.cycleMin = math.Min(c.cycleMin, a)
		c.bottomMin = math.Min(c.bottomMin, a)
		switch {
		case a >= cfg.Standing:
			return c.complete(at)
		case slope > 0 && a > c.cycleMin+cfg.Band:
			c.ascentMax = a
			c.enter(PhaseAscending, at)
		}

	case PhaseAscending:
		c.ascentMax = math.Max(c.ascentMax, a)
		switch {
		case a >= cfg.Standing:
			return c.complete(at)
		case slope < 0 && a <= c.ascentMax-cfg.Band:
			c.dwelling = false
			c.enter(PhaseDescending, at)
		}

	default:
		panic(fmt.Sprintf("rep: unreachable phase %d", int(c.phase)))
	}
	return nil
}

// enter moves to phase next, charging the time spent in the current phase
// to the cycle durations.
func (c *Counter) enter(next Phase, at time.Time) {
	spent := at.Sub(c.phaseSince)
	switch c.phase {
	case PhaseDescending:
		c.durations.Descent += spent
	case PhaseBottom:
		c.durations.Bottom += spent
	case PhaseAscending:
		c.durations.Ascent += spent
	}
	c.phase = next
	c.phaseSince = at
}

func (c *Counter) complete(at time.Time) *Event {
	c.enter(PhaseStanding, at)

	var ev *Event
	switch {
	case c.reached:
		c.reps++
		ev = &Event{Kind: Full, Count: c.reps, Depth: c.bottomMin}
	case c.cfg.Standing-c.cycleMin >= c.cfg.MinExcursion:
		c.halfReps++
		ev = &Event{Kind: Half, Count: c.halfReps, Depth: c.cycleMin}
	}
	if ev != nil {
		ev.Durations = c.durations
		ev.At = at
	}
	c.resetCycle()
	return ev
}

// slope returns the least-squares trend of the window in degrees per
// second, or 0 when it cannot be estimated.
func (c *Counter) slope() float64 {
	if len(c.window) < 2 {
		return 0
	}
	t0 := c.window[0].at
	xs := make([]float64, len(c.window))
	ys := make([]float64, len(c.window))
	for i, s := range c.window {
		xs[i] = s.at.Sub(t0).Seconds()
		ys[i] = s.angle
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}
