// Package profile defines exercise profiles: the metrics scored for an
// exercise, their thresholds and weights, and the rep-counting thresholds.
// Profiles are data only; scoring lives in package form.
package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

// Defaults applied by the built-in profiles and by Definition.Build.
const (
	DefaultFeedbackCutoff = 70.0
	DefaultAffirmation    = "Great form!"
	weightTolerance       = 1e-6
)

// ErrInvalidProfile is wrapped by every validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Grade buckets a metric value by the four thresholds.
type Grade string

const (
	GradeGreat      Grade = "great"
	GradeGood       Grade = "good"
	GradeAcceptable Grade = "acceptable"
	GradePoor       Grade = "poor"
)

// Metric is one scored aspect of form.
type Metric struct {
	Name    string
	Measure Measure
	Weight  float64

	// Thresholds in the measure's unit. They are monotone in either
	// direction: Great < Poor means lower values are better.
	Great      float64
	Good       float64
	Acceptable float64
	Poor       float64

	// Message is shown when this metric is the worst below the cutoff.
	Message string
	// Phases restricts scoring to these rep phases. Empty means always.
	Phases []rep.Phase
}

func (m *Metric) lowerIsBetter() bool {
	return m.Great < m.Poor
}

func (m *Metric) atLeast(v, threshold float64) bool {
	if m.lowerIsBetter() {
		return v <= threshold
	}
	return v >= threshold
}

// Subscore maps v to 0..100: Poor or worse is 0, Great or better is 100,
// linear in between.
func (m *Metric) Subscore(v float64) float64 {
	t := (v - m.Poor) / (m.Great - m.Poor)
	return 100 * math.Max(0, math.Min(1, t))
}

// Grade returns the best threshold band v reaches.
func (m *Metric) Grade(v float64) Grade {
	switch {
	case m.atLeast(v, m.Great):
		return GradeGreat
	case m.atLeast(v, m.Good):
		return GradeGood
	case m.atLeast(v, m.Acceptable):
		return GradeAcceptable
	}
	return GradePoor
}

// ActiveIn reports whether the metric is scored during phase ph.
func (m *Metric) ActiveIn(ph rep.Phase) bool {
	return len(m.Phases) == 0 || slices.Contains(m.Phases, ph)
}

func (m *Metric) validate() error {
	if m.Name == "" {
		return errors.New("metric with empty name")
	}
	if err := m.Measure.validate(); err != nil {
		return fmt.Errorf("metric %s: %w", m.Name, err)
	}
	if !(m.Weight > 0) || math.IsInf(m.Weight, 0) {
		return fmt.Errorf("metric %s: weight must be positive", m.Name)
	}
	if m.Message == "" {
		return fmt.Errorf("metric %s: empty feedback message", m.Name)
	}
	ts := []float64{m.Great, m.Good, m.Acceptable, m.Poor}
	for _, t := range ts {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("metric %s: non-finite threshold", m.Name)
		}
	}
	if m.Great == m.Poor {
		return fmt.Errorf("metric %s: great and poor thresholds are equal", m.Name)
	}
	sorted := slices.IsSorted(ts)
	if !m.lowerIsBetter() {
		sorted = slices.IsSortedFunc(ts, func(a, b float64) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		})
	}
	if !sorted {
		return fmt.Errorf("metric %s: thresholds are not monotone", m.Name)
	}
	return nil
}

// Profile describes how to score and count one exercise.
type Profile struct {
	Name        string
	DisplayName string
	// Metrics in declaration order. Order breaks feedback ties only.
	Metrics        []Metric
	FeedbackCutoff float64
	Affirmation    string
	// Primary is the angle the rep counter follows.
	Primary Measure
	Reps    rep.Config
}

// Metric returns the metric with the given name.
func (p *Profile) Metric(name string) (*Metric, bool) {
	for i := range p.Metrics {
		if p.Metrics[i].Name == name {
			return &p.Metrics[i], true
		}
	}
	return nil, false
}

// Title returns DisplayName, falling back to Name.
func (p *Profile) Title() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// Validate checks the profile. Every failure wraps ErrInvalidProfile.
func (p *Profile) Validate() error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProfile, p.label(), err)
	}
	return nil
}

func (p *Profile) label() string {
	if p.Name == "" {
		return "<unnamed>"
	}
	return p.Name
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return errors.New("empty name")
	}
	if len(p.Metrics) == 0 {
		return errors.New("no metrics")
	}

	names := make(map[string]bool, len(p.Metrics))
	total := 0.0
	for i := range p.Metrics {
		m := &p.Metrics[i]
		if err := m.validate(); err != nil {
			return err
		}
		if names[m.Name] {
			return fmt.Errorf("duplicate metric %s", m.Name)
		}
		names[m.Name] = true
		total += m.Weight
	}
	if math.Abs(total-1) > weightTolerance {
		return fmt.Errorf("metric weights sum to %g, want 1", total)
	}

	if p.FeedbackCutoff < 0 || p.FeedbackCutoff > 100 {
		return fmt.Errorf("feedback cutoff %g outside [0, 100]", p.FeedbackCutoff)
	}
	if p.Affirmation == "" {
		return errors.New("empty affirmation")
	}

	if p.Reps.Enabled {
		if p.Primary.Kind != KindAngle {
			return fmt.Errorf("primary measure must be an angle, got %q", p.Primary.Kind)
		}
		if err := p.Primary.validate(); err != nil {
			return fmt.Errorf("primary: %w", err)
		}
	}
	return p.Reps.Validate()
}
