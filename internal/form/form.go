// Package form scores how closely a pose matches an exercise profile and
// picks a single coaching cue.
package form

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

// ErrIncompletePose is returned when no metric of the profile could be
// computed from the pose.
var ErrIncompletePose = errors.New("incomplete pose")

// Feedback is the single coaching message for a frame.
type Feedback struct {
	Metric   string `json:"metric,omitempty"`
	Message  string `json:"message"`
	Positive bool   `json:"positive"`
}

// Result is the outcome of analyzing one pose.
type Result struct {
	// Score is the weighted form score in [0, 100].
	Score float64 `json:"score"`
	// Subscores maps each computed metric to its score in [0, 100].
	Subscores map[string]float64 `json:"subscores"`
	// Weights holds the weights actually applied, renormalized over the
	// computed metrics so they sum to 1.
	Weights map[string]float64 `json:"weights"`
	// Values holds each computed metric's raw measurement.
	Values map[string]float64       `json:"values"`
	Grades map[string]profile.Grade `json:"grades"`
	// Skipped records why an active metric could not be computed.
	Skipped  map[string]error `json:"-"`
	Feedback Feedback         `json:"feedback"`
}

// Analyze scores p against prof. Metrics restricted to phases other than
// previous are not scored. Metrics whose landmarks are missing or whose
// geometry is degenerate are skipped and their weight is redistributed
// over the rest.
func Analyze(p *pose.Pose, prof *profile.Profile, previous rep.Phase) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no pose", ErrIncompletePose)
	}

	res := &Result{
		Subscores: make(map[string]float64),
		Weights:   make(map[string]float64),
		Values:    make(map[string]float64),
		Grades:    make(map[string]profile.Grade),
		Skipped:   make(map[string]error),
	}

	active := 0
	for i := range prof.Metrics {
		m := &prof.Metrics[i]
		if !m.ActiveIn(previous) {
			continue
		}
		active++

		v, err := m.Measure.Evaluate(p)
		if err != nil {
			res.Skipped[m.Name] = err
			continue
		}
		res.Values[m.Name] = v
		res.Subscores[m.Name] = m.Subscore(v)
		res.Grades[m.Name] = m.Grade(v)
		res.Weights[m.Name] = m.Weight
	}

	if len(res.Subscores) == 0 {
		if active == 0 {
			return nil, fmt.Errorf("%w: no metric is scored in phase %s", ErrIncompletePose, previous)
		}
		causes := []error{ErrIncompletePose}
		for _, name := range sortedKeys(res.Skipped) {
			causes = append(causes, fmt.Errorf("%s: %w", name, res.Skipped[name]))
		}
		return nil, errors.Join(causes...)
	}

	res.Score = weightedScore(res)
	res.Feedback = feedback(prof, res)
	return res, nil
}

// weightedScore renormalizes the weights in place and returns the score.
// Sums run in name order so the result does not depend on the order
// metrics were declared in.
func weightedScore(res *Result) float64 {
	names := sortedKeys(res.Weights)

	total := 0.0
	for _, name := range names {
		total += res.Weights[name]
	}

	score := 0.0
	for _, name := range names {
		w := res.Weights[name] / total
		res.Weights[name] = w
		score += w * res.Subscores[name]
	}
	return math.Max(0, math.Min(100, score))
}

// feedback picks the lowest subscore below the cutoff. The earliest
// declared metric wins ties.
func feedback(prof *profile.Profile, res *Result) Feedback {
	var worst *profile.Metric
	lowest := math.Inf(1)
	for i := range prof.Metrics {
		m := &prof.Metrics[i]
		s, ok := res.Subscores[m.Name]
		if !ok || s >= prof.FeedbackCutoff {
			continue
		}
		if s < lowest {
			worst, lowest = m, s
		}
	}

	if worst == nil {
		return Feedback{Message: prof.Affirmation, Positive: true}
	}
	return Feedback{Metric: worst.Name, Message: worst.Message}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
