package rep

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the exercise phase tracked by the rep counter.
type Phase int

const (
	// PhaseStanding is the rest position at the top of a rep.
	PhaseStanding Phase = iota
	PhaseDescending
	PhaseBottom
	PhaseAscending
)

var phaseNames = map[Phase]string{
	PhaseStanding:   "standing",
	PhaseDescending: "descending",
	PhaseBottom:     "bottom",
	PhaseAscending:  "ascending",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	n, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(n), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase returns the phase with the given name.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// Default thresholds.
const (
	DefaultMinDwell     = 200 * time.Millisecond
	DefaultBand         = 5.0
	DefaultMinExcursion = 15.0
	DefaultWindow       = 3
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid rep config")

// Config holds the state machine thresholds for one exercise.
// Angles are in degrees of the exercise's primary angle.
type Config struct {
	// Enabled is false for hold exercises that have no repetitions.
	Enabled bool
	// Standing is the angle at or above which the body is at rest.
	Standing float64
	// Bottom is the angle at or below which the rep reaches depth.
	Bottom float64
	// MinDwell is how long the angle must stay near its minimum below
	// Bottom before the bottom phase is entered.
	MinDwell time.Duration
	// Band is the tolerance around the minimum used for dwell and for
	// detecting direction reversals.
	Band float64
	// MinExcursion is how far below Standing a shallow cycle must go to
	// count as a half rep rather than noise.
	MinExcursion float64
	// Window is the number of recent samples used to estimate the trend.
	Window int
}

// DefaultConfig returns a Config with the default dwell, band and window.
func DefaultConfig(standing, bottom float64) Config {
	return Config{
		Enabled:      true,
		Standing:     standing,
		Bottom:       bottom,
		MinDwell:     DefaultMinDwell,
		Band:         DefaultBand,
		MinExcursion: DefaultMinExcursion,
		Window:       DefaultWindow,
	}
}

// Validate checks the thresholds. A disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch {
	case c.Standing <= c.Bottom:
		return fmt.Errorf("%w: standing angle %.1f must exceed bottom angle %.1f", ErrInvalidConfig, c.Standing, c.Bottom)
	case c.Bottom <= 0 || c.Standing > 180:
		return fmt.Errorf("%w: angles must lie within (0, 180]", ErrInvalidConfig)
	case c.MinDwell < 0:
		return fmt.Errorf("%w: negative dwell time", ErrInvalidConfig)
	case c.Band < 0:
		return fmt.Errorf("%w: negative band", ErrInvalidConfig)
	case c.MinExcursion < 0:
		return fmt.Errorf("%w: negative minimum excursion", ErrInvalidConfig)
	case c.Window < 2:
		return fmt.Errorf("%w: window must hold at least 2 samples", ErrInvalidConfig)
	}
	return nil
}
