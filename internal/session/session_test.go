package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchellnkeo/CheckMyForm/internal/form"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose/posetest"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/rep"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const step = 20 * time.Millisecond

// squatFrames returns one squat repetition sampled every step.
func squatFrames(start time.Time, depth float64) []Frame {
	var angles []float64
	for range 5 {
		angles = append(angles, 170)
	}
	for a := 165.0; a >= depth; a -= 5 {
		angles = append(angles, a)
	}
	for range 15 {
		angles = append(angles, depth)
	}
	for a := depth + 5; a <= 170; a += 5 {
		angles = append(angles, a)
	}

	frames := make([]Frame, len(angles))
	for i, a := range angles {
		knee := min(a+20, 170)
		frames[i] = Frame{
			Keypoints: posetest.Squat(a, knee, 8).Raw(),
			At:        start.Add(time.Duration(i) * step),
		}
	}
	return frames
}

func newSquatSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("test", profile.Squat(), pose.COCO17())
	require.NoError(t, err)
	return s
}

func TestSession_CountsAndScores(t *testing.T) {
	s := newSquatSession(t)

	var events []*rep.Event
	var bottomScored bool
	for _, f := range squatFrames(epoch, 75) {
		u := s.Submit(f)
		require.NoError(t, u.Err)
		require.NotNil(t, u.Form)
		require.NotNil(t, u.PrimaryAngle)
		if u.Event != nil {
			events = append(events, u.Event)
		}
		if _, ok := u.Form.Subscores["depth"]; ok {
			bottomScored = true
		}
	}

	require.Len(t, events, 1)
	assert.Equal(t, rep.Full, events[0].Kind)
	assert.True(t, bottomScored, "depth should be scored once the bottom phase is reached")

	sum := s.Summary()
	assert.Equal(t, 1, sum.Reps)
	assert.Equal(t, 0, sum.HalfReps)
	assert.Equal(t, sum.Frames, sum.PoseFrames)
	assert.Greater(t, sum.AvgScore, 80.0)
	assert.Equal(t, epoch, sum.StartedAt)
	assert.Len(t, sum.Events, 1)
	assert.Equal(t, profile.NameSquat, sum.Profile)
	assert.Equal(t, pose.DetectorCOCO17, sum.Detector)
}

func TestSession_ShallowRepCuesDepth(t *testing.T) {
	s := newSquatSession(t)

	var angles []float64
	for a := 170.0; a >= 125; a -= 5 {
		angles = append(angles, a)
	}
	for range 10 {
		angles = append(angles, 125)
	}
	for a := 130.0; a <= 170; a += 5 {
		angles = append(angles, a)
	}

	var turnaround *form.Result
	for i, a := range angles {
		u := s.Submit(Frame{
			Keypoints: posetest.Squat(a, a-20, 8).Raw(),
			At:        epoch.Add(time.Duration(i) * step),
		})
		require.NoError(t, u.Err)
		if _, ok := u.Form.Subscores["depth"]; ok && turnaround == nil {
			turnaround = u.Form
		}
	}

	require.NotNil(t, turnaround, "depth must be scored when a shallow descent turns around")
	assert.InDelta(t, 125, turnaround.Values["depth"], 1)
	assert.Equal(t, "depth", turnaround.Feedback.Metric)
	assert.Equal(t, "Squat deeper: aim for thighs parallel to the floor", turnaround.Feedback.Message)
	assert.Equal(t, 1, s.Summary().HalfReps)
}

func TestSession_Absence(t *testing.T) {
	s := newSquatSession(t)

	u := s.Submit(Frame{At: epoch})
	assert.ErrorIs(t, u.Err, ErrNoPose)
	assert.Equal(t, ErrNoPose.Error(), u.Error)
	assert.Nil(t, u.Pose)
	assert.Nil(t, u.Form)
	assert.Equal(t, rep.PhaseStanding, u.Phase)

	sparse := posetest.New().
		Set(pose.Nose, pose.Point2D{X: 0.5, Y: 0.1}).
		Set(pose.LeftEye, pose.Point2D{X: 0.52, Y: 0.09}).
		Raw()
	u = s.Submit(Frame{Keypoints: sparse, At: epoch.Add(step)})
	assert.ErrorIs(t, u.Err, ErrNoPose)

	sum := s.Summary()
	assert.Equal(t, 2, sum.Frames)
	assert.Equal(t, 0, sum.PoseFrames)
	assert.Zero(t, sum.AvgScore)
}

func TestSession_IncompletePose(t *testing.T) {
	s := newSquatSession(t)

	raw := posetest.Squat(170, 170, 5).Drop(pose.LeftHip, pose.RightHip).Raw()
	u := s.Submit(Frame{Keypoints: raw, At: epoch})

	assert.ErrorIs(t, u.Err, form.ErrIncompletePose)
	assert.NotNil(t, u.Pose)
	assert.Nil(t, u.PrimaryAngle)
}

func TestSession_InvalidProfile(t *testing.T) {
	prof := profile.Squat()
	prof.Metrics[0].Weight = 2

	_, err := New("bad", prof, pose.COCO17())
	assert.ErrorIs(t, err, profile.ErrInvalidProfile)
}

func TestSession_Hold(t *testing.T) {
	s, err := New("plank", profile.Plank(), pose.COCO17())
	require.NoError(t, err)

	at := epoch
	submit := func(b *posetest.Builder, n int) Update {
		var u Update
		for range n {
			if b == nil {
				u = s.Submit(Frame{At: at})
			} else {
				u = s.Submit(Frame{Keypoints: b.Raw(), At: at})
			}
			at = at.Add(100 * time.Millisecond)
		}
		return u
	}

	u := submit(posetest.Plank(0, 0), 31)
	assert.Equal(t, 3*time.Second, u.Hold)
	assert.Zero(t, u.Reps)

	// A short dropout does not break the hold.
	submit(nil, 5)
	u = submit(posetest.Plank(0, 0), 1)
	assert.Equal(t, 3600*time.Millisecond, u.Hold)

	// Poor form pauses the hold without adding to it.
	submit(posetest.Plank(0.3, 0), 3)
	u = submit(posetest.Plank(0, 0), 1)
	assert.Equal(t, 3600*time.Millisecond, u.Hold)

	// A long dropout resets it.
	submit(nil, 15)
	u = submit(posetest.Plank(0, 0), 1)
	assert.Zero(t, u.Hold)
	assert.Equal(t, 3600*time.Millisecond, s.Summary().BestHold)
}

func TestSession_Reset(t *testing.T) {
	s := newSquatSession(t)
	for _, f := range squatFrames(epoch, 75) {
		s.Submit(f)
	}
	require.Equal(t, 1, s.Summary().Reps)

	s.Reset()
	sum := s.Summary()
	assert.Zero(t, sum.Reps)
	assert.Zero(t, sum.Frames)
	assert.Empty(t, sum.Events)
}

func TestManager(t *testing.T) {
	m := NewManager(profile.NewRegistry())

	t.Run("unknown profile", func(t *testing.T) {
		_, err := m.Create("lunge", pose.DetectorCOCO17)
		assert.ErrorIs(t, err, profile.ErrUnknownProfile)
	})

	t.Run("unknown detector", func(t *testing.T) {
		_, err := m.Create(profile.NameSquat, "openpose-25")
		assert.ErrorIs(t, err, pose.ErrUnknownDetector)
	})

	t.Run("confidence threshold range", func(t *testing.T) {
		assert.ErrorIs(t, m.SetConfidenceThreshold(1.5), pose.ErrInvalidThreshold)
		assert.ErrorIs(t, m.SetConfidenceThreshold(0.1), pose.ErrInvalidThreshold)
		assert.Equal(t, pose.DefaultConfidenceThreshold, m.threshold)
		require.NoError(t, m.SetConfidenceThreshold(pose.DefaultConfidenceThreshold))
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := m.Submit("missing", Frame{At: epoch})
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = m.Get("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = m.End("missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("lifecycle", func(t *testing.T) {
		created, err := m.Create(profile.NameSquat, pose.DetectorCOCO17)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		for _, f := range squatFrames(epoch, 80) {
			_, err := m.Submit(created.ID, f)
			require.NoError(t, err)
		}

		got, err := m.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Reps)
		assert.Len(t, m.List(), 1)

		ended, err := m.End(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, ended.Reps)
		assert.Empty(t, m.List())
	})
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m := NewManager(profile.NewRegistry())

	const sessions = 8
	ids := make([]string, sessions)
	for i := range ids {
		s, err := m.Create(profile.NameSquat, pose.DetectorCOCO17)
		require.NoError(t, err)
		ids[i] = s.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := epoch.Add(time.Duration(i) * time.Minute)
			for r := range 2 {
				for _, f := range squatFrames(start.Add(time.Duration(r)*10*time.Second), 75) {
					if _, err := m.Submit(id, f); err != nil {
						errs <- err
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	list := m.List()
	require.Len(t, list, sessions)
	for i, s := range list {
		assert.Equal(t, 2, s.Reps, fmt.Sprintf("session %d", i))
		if i > 0 {
			assert.True(t, list[i-1].StartedAt.Before(s.StartedAt))
		}
	}
}
