// Package posetest builds synthetic keypoint sets with known joint angles
// for tests and for the mock detector.
package posetest

import (
	"math"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
)

// DefaultConfidence is the confidence assigned to placed keypoints.
const DefaultConfidence = 0.9

// Step returns the point length away from from, heading deg degrees clockwise
// from straight up in image coordinates (Y grows downward).
func Step(from pose.Point2D, deg, length float64) pose.Point2D {
	r := deg * math.Pi / 180
	return pose.Point2D{
		X: from.X + length*math.Sin(r),
		Y: from.Y - length*math.Cos(r),
	}
}

// Builder assembles a COCO-ordered raw keypoint list.
type Builder struct {
	raw [pose.NumLandmarks]pose.RawKeypoint
}

// New returns a builder with every keypoint below the confidence gate.
func New() *Builder {
	return &Builder{}
}

// Set places landmark l at p with DefaultConfidence.
func (b *Builder) Set(l pose.Landmark, p pose.Point2D) *Builder {
	b.raw[l] = pose.RawKeypoint{X: p.X, Y: p.Y, Confidence: DefaultConfidence}
	return b
}

// SetBoth places l and its mirror at p, as seen from the side.
func (b *Builder) SetBoth(l pose.Landmark, p pose.Point2D) *Builder {
	b.Set(l, p)
	return b.Set(l.Mirror(), p)
}

// Confidence overrides the confidence of landmark l.
func (b *Builder) Confidence(l pose.Landmark, c float64) *Builder {
	b.raw[l].Confidence = c
	return b
}

// Drop hides landmark l below the confidence gate.
func (b *Builder) Drop(ls ...pose.Landmark) *Builder {
	for _, l := range ls {
		b.raw[l] = pose.RawKeypoint{}
	}
	return b
}

// Raw returns a copy of the keypoints in COCO order.
func (b *Builder) Raw() []pose.RawKeypoint {
	out := make([]pose.RawKeypoint, pose.NumLandmarks)
	copy(out, b.raw[:])
	return out
}

// Pose normalizes the keypoints with the COCO mapping. It returns nil when the
// builder holds fewer than pose.MinValidKeypoints visible keypoints.
func (b *Builder) Pose() *pose.Pose {
	p, ok := pose.Normalize(b.Raw(), pose.COCO17())
	if !ok {
		return nil
	}
	return p
}

// Squat builds a side-view squat where angle(shoulder, hip, knee) is hip,
// angle(hip, knee, ankle) is knee and the torso leans back degrees from vertical.
func Squat(hip, knee, back float64) *Builder {
	h := pose.Point2D{X: 0.5, Y: 0.55}
	shoulder := Step(h, back, 0.25)
	thigh := back + hip
	k := Step(h, thigh, 0.2)
	ankle := Step(k, thigh+180-knee, 0.2)

	ear := Step(shoulder, back, 0.06)
	b := New().
		SetBoth(pose.LeftHip, h).
		SetBoth(pose.LeftShoulder, shoulder).
		SetBoth(pose.LeftKnee, k).
		SetBoth(pose.LeftAnkle, ankle).
		SetBoth(pose.LeftEar, ear).
		SetBoth(pose.LeftEye, Step(ear, 90, 0.03)).
		Set(pose.Nose, Step(ear, 100, 0.05))

	elbow := Step(shoulder, 90, 0.15)
	b.SetBoth(pose.LeftElbow, elbow)
	b.SetBoth(pose.LeftWrist, Step(elbow, 90, 0.15))
	return b
}

// PushUp builds a side-view push-up with the given elbow angle. sag is the
// hip's perpendicular offset from the shoulder-ankle line as a fraction of
// that line's length; positive values sag toward the floor.
func PushUp(elbow, sag float64) *Builder {
	shoulder := pose.Point2D{X: 0.7, Y: 0.5}
	ankle := pose.Point2D{X: 0.2, Y: 0.7}
	b := body(shoulder, ankle, sag)

	upper := 180 + (180-elbow)/2
	e := Step(shoulder, upper, 0.12)
	b.SetBoth(pose.LeftElbow, e)
	b.SetBoth(pose.LeftWrist, Step(e, (180+elbow)/2, 0.12))
	return b
}

// Plank builds a side-view forearm plank with the given hip sag and the
// upper arm tilted stack degrees from vertical.
func Plank(sag, stack float64) *Builder {
	shoulder := pose.Point2D{X: 0.7, Y: 0.55}
	ankle := pose.Point2D{X: 0.2, Y: 0.7}
	b := body(shoulder, ankle, sag)

	e := Step(shoulder, 180-stack, 0.15)
	b.SetBoth(pose.LeftElbow, e)
	b.SetBoth(pose.LeftWrist, Step(e, 90, 0.12))
	return b
}

// body places shoulder, hip, knee, ankle and head for a horizontal body line.
func body(shoulder, ankle pose.Point2D, sag float64) *Builder {
	dx, dy := ankle.X-shoulder.X, ankle.Y-shoulder.Y
	length := math.Hypot(dx, dy)
	// Unit normal pointing toward the floor (positive Y).
	nx, ny := -dy/length, dx/length
	if ny < 0 {
		nx, ny = -nx, -ny
	}
	mid := pose.Point2D{X: (shoulder.X + ankle.X) / 2, Y: (shoulder.Y + ankle.Y) / 2}
	hip := pose.Point2D{X: mid.X + nx*sag*length, Y: mid.Y + ny*sag*length}
	knee := pose.Point2D{X: (hip.X + ankle.X) / 2, Y: (hip.Y + ankle.Y) / 2}
	ear := pose.Point2D{X: shoulder.X - dx/length*0.12, Y: shoulder.Y - dy/length*0.12}

	return New().
		SetBoth(pose.LeftShoulder, shoulder).
		SetBoth(pose.LeftHip, hip).
		SetBoth(pose.LeftKnee, knee).
		SetBoth(pose.LeftAnkle, ankle).
		SetBoth(pose.LeftEar, ear).
		SetBoth(pose.LeftEye, pose.Point2D{X: ear.X + 0.02, Y: ear.Y + 0.01}).
		Set(pose.Nose, pose.Point2D{X: ear.X + 0.03, Y: ear.Y + 0.02})
}
