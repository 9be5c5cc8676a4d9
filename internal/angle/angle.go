// Package angle computes joint angles and alignment deviations from
// normalized landmark positions.
//
// Callers must only pass positions of keypoints that cleared the confidence
// gate; the functions here assume valid input and report degenerate geometry
// as errors instead of guessing.
package angle

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

var (
	// ErrDegenerateAngle is returned when two landmarks coincide.
	ErrDegenerateAngle = errors.New("degenerate angle: coincident landmarks")
	// ErrInsufficientPrecision is returned when a segment is too short to
	// measure reliably or an input is not finite.
	ErrInsufficientPrecision = errors.New("insufficient precision")
)

// Segment length limits in normalized frame units.
const (
	zeroLength = 1e-12
	// MinSegment is the shortest segment that yields a meaningful direction.
	MinSegment = 1e-3
)

func vec(p pose.Point2D) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func finite(ps ...pose.Point2D) bool {
	for _, p := range ps {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// segment returns to-from and checks that it is long enough to measure.
func segment(from, to pose.Point2D) (r2.Vec, float64, error) {
	v := r2.Sub(vec(to), vec(from))
	n := r2.Norm(v)
	switch {
	case n < zeroLength:
		return v, n, ErrDegenerateAngle
	case n < MinSegment:
		return v, n, ErrInsufficientPrecision
	}
	return v, n, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Between returns the interior angle at vertex b formed by rays b->a and
// b->c, in degrees within [0, 180].
func Between(a, b, c pose.Point2D) (float64, error) {
	if !finite(a, b, c) {
		return 0, ErrInsufficientPrecision
	}
	ba, na, err := segment(b, a)
	if err != nil {
		return 0, err
	}
	bc, nc, err := segment(b, c)
	if err != nil {
		return 0, err
	}

	cos := r2.Dot(ba, bc) / (na * nc)
	cos = math.Max(-1, math.Min(1, cos))
	return degrees(math.Acos(cos)), nil
}

// FromVertical returns the angle between segment a->b and the vertical axis,
// in degrees within [0, 90].
func FromVertical(a, b pose.Point2D) (float64, error) {
	if !finite(a, b) {
		return 0, ErrInsufficientPrecision
	}
	v, _, err := segment(a, b)
	if err != nil {
		return 0, err
	}
	return degrees(math.Atan2(math.Abs(v.X), math.Abs(v.Y))), nil
}

// FromHorizontal returns the angle between segment a->b and the horizontal
// axis, in degrees within [0, 90].
func FromHorizontal(a, b pose.Point2D) (float64, error) {
	if !finite(a, b) {
		return 0, ErrInsufficientPrecision
	}
	v, _, err := segment(a, b)
	if err != nil {
		return 0, err
	}
	return degrees(math.Atan2(math.Abs(v.Y), math.Abs(v.X))), nil
}

// LineDeviation returns the perpendicular distance of b from the line through
// a and c, divided by the length of a->c. Zero means the three points are
// collinear; 0.1 means b sits a tenth of the a-c length off the line.
func LineDeviation(a, b, c pose.Point2D) (float64, error) {
	if !finite(a, b, c) {
		return 0, ErrInsufficientPrecision
	}
	ac, n, err := segment(a, c)
	if err != nil {
		return 0, err
	}
	ab := r2.Sub(vec(b), vec(a))
	return math.Abs(r2.Cross(ac, ab)) / (n * n), nil
}
