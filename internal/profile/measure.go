package profile

import (
	"errors"
	"fmt"

	"github.com/mitchellnkeo/CheckMyForm/internal/angle"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

// ErrMissingLandmark is returned when a landmark a measure needs did not
// clear the confidence gate.
var ErrMissingLandmark = errors.New("missing landmark")

// Kind selects which geometric quantity a Measure computes.
type Kind string

const (
	// KindAngle is the interior angle at the middle of three landmarks.
	KindAngle Kind = "angle"
	// KindVertical is the angle of a two-landmark segment to vertical.
	KindVertical Kind = "vertical"
	// KindHorizontal is the angle of a two-landmark segment to horizontal.
	KindHorizontal Kind = "horizontal"
	// KindLine is the normalized deviation of the middle of three landmarks
	// from the line through the outer two.
	KindLine Kind = "line"
)

// Arity returns the number of landmarks the kind needs, or 0 for an
// unknown kind.
func (k Kind) Arity() int {
	switch k {
	case KindAngle, KindLine:
		return 3
	case KindVertical, KindHorizontal:
		return 2
	}
	return 0
}

// Measure names a geometric quantity over specific landmarks.
type Measure struct {
	Kind      Kind
	Landmarks []pose.Landmark
	// Mirror allows the opposite-side landmarks to be used instead when they
	// are more visible. Side-view exercises only show one side clearly.
	Mirror bool
}

// Angle is a shorthand for an interior angle measure at b.
func Angle(a, b, c pose.Landmark) Measure {
	return Measure{Kind: KindAngle, Landmarks: []pose.Landmark{a, b, c}, Mirror: true}
}

// Vertical is a shorthand for a segment-to-vertical measure.
func Vertical(a, b pose.Landmark) Measure {
	return Measure{Kind: KindVertical, Landmarks: []pose.Landmark{a, b}, Mirror: true}
}

// Horizontal is a shorthand for a segment-to-horizontal measure.
func Horizontal(a, b pose.Landmark) Measure {
	return Measure{Kind: KindHorizontal, Landmarks: []pose.Landmark{a, b}, Mirror: true}
}

// Line is a shorthand for a line deviation measure of b from a-c.
func Line(a, b, c pose.Landmark) Measure {
	return Measure{Kind: KindLine, Landmarks: []pose.Landmark{a, b, c}, Mirror: true}
}

func (m Measure) mirrored() []pose.Landmark {
	out := make([]pose.Landmark, len(m.Landmarks))
	for i, l := range m.Landmarks {
		out[i] = l.Mirror()
	}
	return out
}

// Resolve picks the landmarks to evaluate on p. With Mirror set, the side
// with the higher mean confidence wins; the declared side wins ties.
func (m Measure) Resolve(p *pose.Pose) ([]pose.Landmark, error) {
	primary := m.Landmarks
	ok := p.Visible(primary...)
	if !m.Mirror {
		if !ok {
			return nil, m.missing(p, primary)
		}
		return primary, nil
	}

	other := m.mirrored()
	otherOK := p.Visible(other...)
	switch {
	case ok && otherOK:
		if p.MeanConfidence(other...) > p.MeanConfidence(primary...) {
			return other, nil
		}
		return primary, nil
	case ok:
		return primary, nil
	case otherOK:
		return other, nil
	}
	return nil, m.missing(p, primary)
}

func (m Measure) missing(p *pose.Pose, ls []pose.Landmark) error {
	for _, l := range ls {
		if !p.At(l).Valid() {
			return fmt.Errorf("%w: %s", ErrMissingLandmark, l)
		}
	}
	return ErrMissingLandmark
}

// Evaluate computes the measure on p.
func (m Measure) Evaluate(p *pose.Pose) (float64, error) {
	ls, err := m.Resolve(p)
	if err != nil {
		return 0, err
	}
	pos := func(i int) pose.Point2D { return p.At(ls[i]).Position }

	switch m.Kind {
	case KindAngle:
		return angle.Between(pos(0), pos(1), pos(2))
	case KindVertical:
		return angle.FromVertical(pos(0), pos(1))
	case KindHorizontal:
		return angle.FromHorizontal(pos(0), pos(1))
	case KindLine:
		return angle.LineDeviation(pos(0), pos(1), pos(2))
	}
	return 0, fmt.Errorf("unknown measure kind %q", m.Kind)
}

func (m Measure) validate() error {
	n := m.Kind.Arity()
	if n == 0 {
		return fmt.Errorf("unknown measure kind %q", m.Kind)
	}
	if len(m.Landmarks) != n {
		return fmt.Errorf("%s measure needs %d landmarks, got %d", m.Kind, n, len(m.Landmarks))
	}
	seen := make(map[pose.Landmark]bool, n)
	for _, l := range m.Landmarks {
		if !l.Valid() {
			return fmt.Errorf("landmark %d out of range", int(l))
		}
		if seen[l] {
			return fmt.Errorf("landmark %s repeated", l)
		}
		seen[l] = true
	}
	return nil
}

func (m Measure) String() string {
	return fmt.Sprintf("%s%v", m.Kind, m.Landmarks)
}
