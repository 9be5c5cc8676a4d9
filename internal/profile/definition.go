package profile

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

// Definition is the serialized form of a Profile, shared by profile files
// (TOML), the HTTP API (JSON) and the store.
type Definition struct {
	Name           string             `toml:"name" json:"name"`
	DisplayName    string             `toml:"display_name,omitempty" json:"display_name,omitempty"`
	FeedbackCutoff *float64           `toml:"feedback_cutoff,omitempty" json:"feedback_cutoff,omitempty"`
	Affirmation    string             `toml:"affirmation,omitempty" json:"affirmation,omitempty"`
	Primary        *MeasureDefinition `toml:"primary,omitempty" json:"primary,omitempty"`
	Reps           *RepsDefinition    `toml:"reps,omitempty" json:"reps,omitempty"`
	Metrics        []MetricDefinition `toml:"metric" json:"metrics"`
}

// MeasureDefinition is the serialized form of a Measure. Mirror defaults to true.
type MeasureDefinition struct {
	Kind      Kind            `toml:"kind" json:"kind"`
	Landmarks []pose.Landmark `toml:"landmarks" json:"landmarks"`
	Mirror    *bool           `toml:"mirror,omitempty" json:"mirror,omitempty"`
}

// MetricDefinition is the serialized form of a Metric.
type MetricDefinition struct {
	Name       string          `toml:"name" json:"name"`
	Kind       Kind            `toml:"kind" json:"kind"`
	Landmarks  []pose.Landmark `toml:"landmarks" json:"landmarks"`
	Mirror     *bool           `toml:"mirror,omitempty" json:"mirror,omitempty"`
	Weight     float64         `toml:"weight" json:"weight"`
	Great      float64         `toml:"great" json:"great"`
	Good       float64         `toml:"good" json:"good"`
	Acceptable float64         `toml:"acceptable" json:"acceptable"`
	Poor       float64         `toml:"poor" json:"poor"`
	Message    string          `toml:"message" json:"message"`
	Phases     []rep.Phase     `toml:"phases,omitempty" json:"phases,omitempty"`
}

// RepsDefinition is the serialized form of the rep thresholds. Omitted
// optional fields take the rep package defaults.
type RepsDefinition struct {
	Enabled      *bool    `toml:"enabled,omitempty" json:"enabled,omitempty"`
	Standing     float64  `toml:"standing" json:"standing"`
	Bottom       float64  `toml:"bottom" json:"bottom"`
	MinDwellMS   *int64   `toml:"min_dwell_ms,omitempty" json:"min_dwell_ms,omitempty"`
	Band         *float64 `toml:"band,omitempty" json:"band,omitempty"`
	MinExcursion *float64 `toml:"min_excursion,omitempty" json:"min_excursion,omitempty"`
	Window       *int     `toml:"window,omitempty" json:"window,omitempty"`
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func ptr[T any](v T) *T {
	return &v
}

func (d MeasureDefinition) build() Measure {
	return Measure{
		Kind:      d.Kind,
		Landmarks: slices.Clone(d.Landmarks),
		Mirror:    orDefault(d.Mirror, true),
	}
}

func (d *RepsDefinition) build() rep.Config {
	if d == nil {
		return rep.Config{}
	}
	cfg := rep.DefaultConfig(d.Standing, d.Bottom)
	cfg.Enabled = orDefault(d.Enabled, true)
	cfg.MinDwell = time.Duration(orDefault(d.MinDwellMS, rep.DefaultMinDwell.Milliseconds())) * time.Millisecond
	cfg.Band = orDefault(d.Band, rep.DefaultBand)
	cfg.MinExcursion = orDefault(d.MinExcursion, rep.DefaultMinExcursion)
	cfg.Window = orDefault(d.Window, rep.DefaultWindow)
	return cfg
}

// Build converts the definition to a validated Profile.
func (d Definition) Build() (*Profile, error) {
	p := &Profile{
		Name:           strings.TrimSpace(d.Name),
		DisplayName:    d.DisplayName,
		FeedbackCutoff: orDefault(d.FeedbackCutoff, DefaultFeedbackCutoff),
		Affirmation:    d.Affirmation,
		Reps:           d.Reps.build(),
	}
	if p.Affirmation == "" {
		p.Affirmation = DefaultAffirmation
	}
	if d.Primary != nil {
		p.Primary = d.Primary.build()
	}
	for _, md := range d.Metrics {
		p.Metrics = append(p.Metrics, Metric{
			Name:       md.Name,
			Measure:    MeasureDefinition{Kind: md.Kind, Landmarks: md.Landmarks, Mirror: md.Mirror}.build(),
			Weight:     md.Weight,
			Great:      md.Great,
			Good:       md.Good,
			Acceptable: md.Acceptable,
			Poor:       md.Poor,
			Message:    md.Message,
			Phases:     slices.Clone(md.Phases),
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Definition returns the serialized form of p with every field explicit.
func (p *Profile) Definition() Definition {
	d := Definition{
		Name:           p.Name,
		DisplayName:    p.DisplayName,
		FeedbackCutoff: ptr(p.FeedbackCutoff),
		Affirmation:    p.Affirmation,
		Primary: &MeasureDefinition{
			Kind:      p.Primary.Kind,
			Landmarks: slices.Clone(p.Primary.Landmarks),
			Mirror:    ptr(p.Primary.Mirror),
		},
		Reps: &RepsDefinition{
			Enabled:      ptr(p.Reps.Enabled),
			Standing:     p.Reps.Standing,
			Bottom:       p.Reps.Bottom,
			MinDwellMS:   ptr(p.Reps.MinDwell.Milliseconds()),
			Band:         ptr(p.Reps.Band),
			MinExcursion: ptr(p.Reps.MinExcursion),
			Window:       ptr(p.Reps.Window),
		},
	}
	if p.Primary.Kind == "" {
		d.Primary = nil
	}
	for _, m := range p.Metrics {
		d.Metrics = append(d.Metrics, MetricDefinition{
			Name:       m.Name,
			Kind:       m.Measure.Kind,
			Landmarks:  slices.Clone(m.Measure.Landmarks),
			Mirror:     ptr(m.Measure.Mirror),
			Weight:     m.Weight,
			Great:      m.Great,
			Good:       m.Good,
			Acceptable: m.Acceptable,
			Poor:       m.Poor,
			Message:    m.Message,
			Phases:     slices.Clone(m.Phases),
		})
	}
	return d
}

type profileFile struct {
	Profiles []Definition `toml:"profile"`
}

// LoadFile reads custom profiles from a TOML file of [[profile]] tables.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadFile(path string) ([]*Profile, error) {
	var f profileFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profiles in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidProfile, path, strings.Join(keys, ", "))
	}

	profiles := make([]*Profile, 0, len(f.Profiles))
	for _, d := range f.Profiles {
		p, err := d.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
