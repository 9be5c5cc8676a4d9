package profile

import (
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

// Built-in profile names.
const (
	NameSquat  = "squat"
	NamePushUp = "push-up"
	NamePlank  = "plank"
)

// bottomOnly metrics are also scored once per shallow repetition, at the
// lowest pose of a descent that turns around above the bottom threshold.
func bottomOnly() []rep.Phase { return []rep.Phase{rep.PhaseBottom} }

// Squat returns the side-view bodyweight squat profile.
func Squat() *Profile {
	return &Profile{
		Name:        NameSquat,
		DisplayName: "Squat",
		Metrics: []Metric{
			{
				Name:    "depth",
				Measure: Angle(pose.LeftShoulder, pose.LeftHip, pose.LeftKnee),
				Weight:  0.4,
				Great:   90, Good: 100, Acceptable: 115, Poor: 140,
				Message: "Squat deeper: aim for thighs parallel to the floor",
				Phases:  bottomOnly(),
			},
			{
				Name:    "knee",
				Measure: Angle(pose.LeftHip, pose.LeftKnee, pose.LeftAnkle),
				Weight:  0.3,
				Great:   100, Good: 110, Acceptable: 125, Poor: 150,
				Message: "Bend your knees more",
				Phases:  bottomOnly(),
			},
			{
				Name:    "back",
				Measure: Vertical(pose.LeftHip, pose.LeftShoulder),
				Weight:  0.3,
				Great:   10, Good: 15, Acceptable: 20, Poor: 25,
				Message: "Keep your back straight",
			},
		},
		FeedbackCutoff: DefaultFeedbackCutoff,
		Affirmation:    DefaultAffirmation,
		Primary:        Angle(pose.LeftShoulder, pose.LeftHip, pose.LeftKnee),
		Reps:           rep.DefaultConfig(160, 90),
	}
}

// PushUp returns the side-view push-up profile.
func PushUp() *Profile {
	return &Profile{
		Name:        NamePushUp,
		DisplayName: "Push-up",
		Metrics: []Metric{
			{
				Name:    "depth",
				Measure: Angle(pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist),
				Weight:  0.4,
				Great:   90, Good: 100, Acceptable: 110, Poor: 140,
				Message: "Lower your chest further",
				Phases:  bottomOnly(),
			},
			bodyLine(0.4),
			neck(0.2),
		},
		FeedbackCutoff: DefaultFeedbackCutoff,
		Affirmation:    DefaultAffirmation,
		Primary:        Angle(pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist),
		Reps:           rep.DefaultConfig(150, 90),
	}
}

// Plank returns the forearm plank profile. Planks are held, not repeated.
func Plank() *Profile {
	reps := rep.DefaultConfig(160, 120)
	reps.Enabled = false
	return &Profile{
		Name:        NamePlank,
		DisplayName: "Plank",
		Metrics: []Metric{
			bodyLine(0.5),
			{
				Name:    "shoulder_stack",
				Measure: Vertical(pose.LeftShoulder, pose.LeftElbow),
				Weight:  0.25,
				Great:   10, Good: 15, Acceptable: 20, Poor: 30,
				Message: "Stack your shoulders over your elbows",
			},
			neck(0.25),
		},
		FeedbackCutoff: DefaultFeedbackCutoff,
		Affirmation:    DefaultAffirmation,
		Primary:        Angle(pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle),
		Reps:           reps,
	}
}

func bodyLine(weight float64) Metric {
	return Metric{
		Name:    "body_line",
		Measure: Line(pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle),
		Weight:  weight,
		Great:   0.03, Good: 0.06, Acceptable: 0.09, Poor: 0.15,
		Message: "Keep your body in a straight line",
	}
}

func neck(weight float64) Metric {
	return Metric{
		Name:    "neck",
		Measure: Line(pose.LeftEar, pose.LeftShoulder, pose.LeftHip),
		Weight:  weight,
		Great:   0.05, Good: 0.08, Acceptable: 0.12, Poor: 0.2,
		Message: "Keep your head in line with your spine",
	}
}

// Builtins returns fresh copies of every built-in profile.
func Builtins() []*Profile {
	return []*Profile{Squat(), PushUp(), Plank()}
}
