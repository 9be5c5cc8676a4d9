package pose

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func fullRaw(conf float64) []RawKeypoint {
	raw := make([]RawKeypoint, NumLandmarks)
	for i := range raw {
		raw[i] = RawKeypoint{X: 0.1 + float64(i)*0.01, Y: 0.2 + float64(i)*0.02, Confidence: conf}
	}
	return raw
}

func TestNormalize(t *testing.T) {
	t.Run("keeps all confident keypoints in landmark order", func(t *testing.T) {
		raw := fullRaw(0.8)

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}

		for l := Landmark(0); l < NumLandmarks; l++ {
			kp := p.At(l)
			if kp.Position.X != raw[l].X || kp.Position.Y != raw[l].Y {
				t.Errorf("%s: expected position (%f, %f), got (%f, %f)", l, raw[l].X, raw[l].Y, kp.Position.X, kp.Position.Y)
			}
		}
		if math.Abs(p.Score-0.8) > epsilon {
			t.Errorf("expected score 0.8, got %f", p.Score)
		}
	})

	t.Run("gated keypoints become the sentinel", func(t *testing.T) {
		raw := fullRaw(0.9)
		raw[LeftKnee].Confidence = 0.3
		raw[RightKnee].Confidence = 0.1

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}

		for _, l := range []Landmark{LeftKnee, RightKnee} {
			if p.At(l) != (Keypoint{}) {
				t.Errorf("%s: expected sentinel keypoint, got %+v", l, p.At(l))
			}
		}
		if got := p.ValidCount(); got != NumLandmarks-2 {
			t.Errorf("expected %d valid keypoints, got %d", NumLandmarks-2, got)
		}
	})

	t.Run("confidence is clamped to one", func(t *testing.T) {
		raw := fullRaw(7)

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}
		if p.Score != 1 {
			t.Errorf("expected score 1, got %f", p.Score)
		}
		for l := Landmark(0); l < NumLandmarks; l++ {
			if c := p.At(l).Confidence; c != 1 {
				t.Errorf("%s: expected confidence 1, got %f", l, c)
			}
		}
	})

	t.Run("non-finite confidence is gated", func(t *testing.T) {
		raw := fullRaw(0.9)
		raw[LeftHip].Confidence = math.Inf(1)
		raw[RightHip].Confidence = math.NaN()

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}
		for _, l := range []Landmark{LeftHip, RightHip} {
			if p.At(l).Valid() {
				t.Errorf("%s: expected gated keypoint, got %+v", l, p.At(l))
			}
		}
		if math.Abs(p.Score-0.9) > epsilon {
			t.Errorf("expected score 0.9, got %f", p.Score)
		}
	})

	t.Run("score is the mean over kept keypoints only", func(t *testing.T) {
		raw := fullRaw(0)
		for i, c := range []float64{0.5, 0.6, 0.7, 0.8, 0.9} {
			raw[i].Confidence = c
		}

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}
		if math.Abs(p.Score-0.7) > epsilon {
			t.Errorf("expected score 0.7, got %f", p.Score)
		}
	})

	t.Run("fewer than five confident keypoints is absence", func(t *testing.T) {
		for kept := 0; kept < MinValidKeypoints; kept++ {
			raw := fullRaw(0.1)
			for i := 0; i < kept; i++ {
				raw[i].Confidence = 0.95
			}

			p, ok := Normalize(raw, COCO17())
			if ok || p != nil {
				t.Errorf("kept=%d: expected absence, got %+v", kept, p)
			}
		}
	})

	t.Run("exactly five confident keypoints is a pose", func(t *testing.T) {
		raw := fullRaw(0.1)
		for i := 0; i < MinValidKeypoints; i++ {
			raw[i].Confidence = 0.95
		}

		if _, ok := Normalize(raw, COCO17()); !ok {
			t.Error("expected a pose with five keypoints")
		}
	})

	t.Run("short or empty detector output", func(t *testing.T) {
		if _, ok := Normalize(nil, COCO17()); ok {
			t.Error("expected absence for nil input")
		}

		p, ok := Normalize(fullRaw(0.9)[:6], COCO17())
		if !ok {
			t.Fatal("expected a pose from six keypoints")
		}
		if p.At(RightAnkle).Valid() {
			t.Error("expected missing source index to produce the sentinel")
		}
	})

	t.Run("non-finite values are gated", func(t *testing.T) {
		raw := fullRaw(0.9)
		raw[Nose].X = math.NaN()
		raw[LeftEye].Y = math.Inf(1)

		p, ok := Normalize(raw, COCO17())
		if !ok {
			t.Fatal("expected a pose")
		}
		if p.At(Nose).Valid() || p.At(LeftEye).Valid() {
			t.Error("expected non-finite keypoints to be gated")
		}
	})

	t.Run("mapping is deterministic", func(t *testing.T) {
		raw := make([]RawKeypoint, 33)
		for i := range raw {
			raw[i] = RawKeypoint{X: float64(i) / 33, Y: 0.5, Confidence: 0.9}
		}

		a, _ := Normalize(raw, MediaPipe33())
		b, _ := Normalize(raw, MediaPipe33())
		if *a != *b {
			t.Error("expected identical poses from identical input")
		}
		if a.At(LeftHip).Position.X != raw[23].X {
			t.Errorf("expected left hip from index 23, got x=%f", a.At(LeftHip).Position.X)
		}
	})
}

func TestNormalize_ThresholdMonotonic(t *testing.T) {
	raw := make([]RawKeypoint, NumLandmarks)
	for i := range raw {
		raw[i] = RawKeypoint{X: 0.5, Y: 0.5, Confidence: float64(i+1) / float64(NumLandmarks+1)}
	}

	var prev *Pose
	for _, threshold := range []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7} {
		p, ok := NormalizeWithThreshold(raw, COCO17(), threshold)
		if prev != nil && ok {
			for l := Landmark(0); l < NumLandmarks; l++ {
				if p.At(l).Valid() && !prev.At(l).Valid() {
					t.Errorf("threshold %.1f: %s appeared after raising the threshold", threshold, l)
				}
			}
		}
		if prev != nil && !ok {
			break
		}
		prev = p
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{DefaultConfidenceThreshold, 0.5, 0.999} {
		if err := ValidateThreshold(v); err != nil {
			t.Errorf("%v: unexpected error: %v", v, err)
		}
	}
	for _, v := range []float64{0, 0.29, 1, 7, math.Inf(1), math.NaN()} {
		if err := ValidateThreshold(v); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("%v: expected ErrInvalidThreshold, got %v", v, err)
		}
	}
}

func TestLandmark(t *testing.T) {
	t.Run("names round trip", func(t *testing.T) {
		for l := Landmark(0); l < NumLandmarks; l++ {
			text, err := l.MarshalText()
			if err != nil {
				t.Fatalf("%d: unexpected error: %v", l, err)
			}
			var got Landmark
			if err := got.UnmarshalText(text); err != nil {
				t.Fatalf("%s: unexpected error: %v", text, err)
			}
			if got != l {
				t.Errorf("expected %s, got %s", l, got)
			}
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := ParseLandmark("left_toe"); err == nil {
			t.Error("expected error for unknown landmark")
		}
	})

	t.Run("mirror pairs", func(t *testing.T) {
		pairs := map[Landmark]Landmark{
			Nose:         Nose,
			LeftEye:      RightEye,
			RightEar:     LeftEar,
			LeftShoulder: RightShoulder,
			RightHip:     LeftHip,
			LeftAnkle:    RightAnkle,
		}
		for l, want := range pairs {
			if got := l.Mirror(); got != want {
				t.Errorf("%s: expected mirror %s, got %s", l, want, got)
			}
		}
	})
}

func TestMappingFor(t *testing.T) {
	m, err := MappingFor(DetectorMediaPipe33)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source(RightAnkle) != 28 {
		t.Errorf("expected right ankle at 28, got %d", m.Source(RightAnkle))
	}

	if _, err := MappingFor("openpose-25"); err == nil {
		t.Error("expected error for unknown detector")
	}
}
