package detector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

func TestMockDetector(t *testing.T) {
	t.Run("returns nil by default", func(t *testing.T) {
		mock := NewMockDetector()

		d, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !d.Empty() {
			t.Errorf("expected no detection, got %v", d)
		}
	})

	t.Run("replays the configured sequence", func(t *testing.T) {
		mock := NewMockDetector()
		first, second := SquatDetection(170, 170, 5), SquatDetection(90, 100, 10)
		mock.SetSequence(first, second)

		for i, want := range []*Detection{first, second, first} {
			got, err := mock.Detect(nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Errorf("call %d: unexpected detection", i)
			}
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetDetection(SquatDetection(170, 170, 5))

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		d, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if d != nil {
			t.Errorf("expected nil detection when error is set, got %v", d)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestSquatRepSequence(t *testing.T) {
	s, err := session.New("mock", profile.Squat(), pose.COCO17())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	frames := SquatRepSequence(75, 10)
	for i, d := range frames {
		u := s.Submit(session.Frame{Keypoints: d.Keypoints, At: start.Add(time.Duration(i) * 33 * time.Millisecond)})
		if u.Err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, u.Err)
		}
	}

	if got := s.Summary().Reps; got != 1 {
		t.Errorf("expected 1 rep from the preset sequence, got %d", got)
	}
}

func TestFrameProtocol(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{[]byte("first frame"), {}, bytes.Repeat([]byte{0xff}, 4096)}

	for _, p := range payloads {
		if err := writeFrame(&buf, p); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	for i, want := range payloads {
		got, err := readFrame(&buf)
		if err != nil {
			t.Fatalf("frame %d: read failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: payload mismatch", i)
		}
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("landmarks become raw keypoints", func(t *testing.T) {
		d, err := parseResponse([]byte(`{"landmarks":[{"x":0.1,"y":0.2,"z":-0.3,"visibility":0.9},{"x":0.4,"y":0.5,"z":0,"visibility":0.2}]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(d.Keypoints) != 2 {
			t.Fatalf("expected 2 keypoints, got %d", len(d.Keypoints))
		}
		want := pose.RawKeypoint{X: 0.1, Y: 0.2, Confidence: 0.9}
		if d.Keypoints[0] != want {
			t.Errorf("expected %+v, got %+v", want, d.Keypoints[0])
		}
	})

	t.Run("no person", func(t *testing.T) {
		d, err := parseResponse([]byte(`{"landmarks":[]}`))
		if err != nil || d != nil {
			t.Errorf("expected nil detection, got %v, %v", d, err)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"error":"model failed to load"}`))
		if !errors.Is(err, ErrService) {
			t.Errorf("expected ErrService, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"landmarks":`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestHelperProcess stands in for the Python pose service. It answers
// frames starting with 'P' with a full 33-point pose and anything else
// with an empty one.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	in := bufio.NewReader(os.Stdin)
	for {
		data, err := readFrame(in)
		if err != nil {
			os.Exit(0)
		}
		if len(data) > 0 && data[0] == 'P' {
			fmt.Print(`{"landmarks":[`)
			for i := range 33 {
				if i > 0 {
					fmt.Print(",")
				}
				fmt.Printf(`{"x":%f,"y":0.5,"z":0,"visibility":0.9}`, float64(i)/33)
			}
			fmt.Println(`]}`)
			continue
		}
		fmt.Println(`{"landmarks":[]}`)
	}
}

func TestMediaPipeDetector_Subprocess(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")

	cfg := DefaultConfig()
	cfg.Python = os.Args[0]
	cfg.ScriptPath = "-test.run=TestHelperProcess"

	d, err := NewMediaPipeDetector(cfg)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}
	defer d.Close()

	if d.Mapping() != pose.DetectorMediaPipe33 {
		t.Errorf("expected mapping %s, got %s", pose.DetectorMediaPipe33, d.Mapping())
	}

	got, err := d.detectEncoded([]byte("Person"))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if len(got.Keypoints) != 33 {
		t.Fatalf("expected 33 keypoints, got %d", len(got.Keypoints))
	}

	m, _ := pose.MappingFor(d.Mapping())
	p, ok := pose.Normalize(got.Keypoints, m)
	if !ok {
		t.Fatal("expected a pose from a full detection")
	}
	if p.At(pose.LeftHip).Position.X != got.Keypoints[23].X {
		t.Error("expected left hip to come from index 23")
	}

	empty, err := d.detectEncoded([]byte("nobody"))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !empty.Empty() {
		t.Errorf("expected no detection, got %d keypoints", len(empty.Keypoints))
	}

	if err := d.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}
