package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func fixture() ([]store.FormSample, []store.RepEvent) {
	samples := []store.FormSample{
		{At: start, Score: ptr(90), PrimaryAngle: ptr(170), Phase: "standing"},
		{At: start.Add(time.Second), Score: ptr(60), PrimaryAngle: ptr(80), Phase: "bottom", Feedback: "Keep your back straight"},
		{At: start.Add(2 * time.Second), PrimaryAngle: ptr(120), Phase: "ascending"},
		{At: start.Add(3 * time.Second), Score: ptr(75), PrimaryAngle: ptr(168), Phase: "standing", Feedback: "Keep your back straight"},
		{At: start.Add(4 * time.Second), Score: ptr(95), PrimaryAngle: ptr(110), Phase: "descending", Feedback: "Squat deeper: aim for thighs parallel to the floor"},
	}
	events := []store.RepEvent{
		{Seq: 1, Kind: "full", Depth: 80, Descent: time.Second, Bottom: 500 * time.Millisecond, Ascent: 1500 * time.Millisecond, At: start.Add(3 * time.Second)},
		{Seq: 2, Kind: "full", Depth: 90, Descent: time.Second, Ascent: time.Second, At: start.Add(6 * time.Second)},
		{Seq: 3, Kind: "half", Depth: 120, Descent: 500 * time.Millisecond, Ascent: 500 * time.Millisecond, At: start.Add(8 * time.Second)},
	}
	return samples, events
}

func TestSummarize(t *testing.T) {
	samples, events := fixture()
	st := Summarize(samples, events)

	assert.Equal(t, 5, st.Samples)
	assert.Equal(t, 4, st.Scored)
	assert.Equal(t, 2, st.Reps)
	assert.Equal(t, 1, st.HalfReps)
	assert.InDelta(t, 80, st.MeanScore, 1e-9)
	assert.InDelta(t, 60, st.MinScore, 1e-9)
	assert.InDelta(t, 85, st.MeanDepth, 1e-9)
	assert.InDelta(t, 7.0711, st.DepthStdDev, 1e-3)
	assert.Equal(t, 2*time.Second, st.MeanRep)
	assert.Equal(t, "Keep your back straight", st.TopFeedback)
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil, nil)
	assert.Zero(t, st)
}

func TestSummarize_SingleRep(t *testing.T) {
	st := Summarize(nil, []store.RepEvent{{Kind: "full", Depth: 85}})
	assert.Equal(t, 85.0, st.MeanDepth)
	assert.Zero(t, st.DepthStdDev)
}

func TestRender(t *testing.T) {
	samples, events := fixture()

	for _, ext := range []string{"png", "svg"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "workout."+ext)
			require.NoError(t, Render("Squat", samples, events, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestPlot_NoData(t *testing.T) {
	_, err := Plot("Squat", nil, nil)
	assert.ErrorIs(t, err, ErrNoData)

	err = Render("Squat", nil, nil, filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPlot_UnscoredWorkout(t *testing.T) {
	samples := []store.FormSample{{At: start, Phase: "standing"}, {At: start.Add(time.Second), Phase: "standing"}}
	p, err := Plot("Plank", samples, nil)
	require.NoError(t, err)
	assert.Equal(t, "Plank", p.Title.Text)
}
