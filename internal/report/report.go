// Package report summarizes recorded workouts and renders them as charts.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// ErrNoData is returned when a workout has no samples to chart.
var ErrNoData = errors.New("workout has no form samples")

var (
	angleColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	scoreColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	fullColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	halfColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Stats summarizes a workout's samples and rep events.
type Stats struct {
	Samples  int `json:"samples"`
	Scored   int `json:"scored"`
	Reps     int `json:"reps"`
	HalfReps int `json:"half_reps"`

	MeanScore float64 `json:"mean_score"`
	MinScore  float64 `json:"min_score"`
	// MeanDepth and DepthStdDev describe full reps only.
	MeanDepth   float64 `json:"mean_depth"`
	DepthStdDev float64 `json:"depth_std_dev"`

	MeanRep time.Duration `json:"mean_rep"`
	// TopFeedback is the most frequent correction, if any.
	TopFeedback string `json:"top_feedback,omitempty"`
}

// Summarize computes workout statistics.
func Summarize(samples []store.FormSample, events []store.RepEvent) Stats {
	st := Stats{Samples: len(samples)}

	var scores []float64
	feedback := make(map[string]int)
	for _, s := range samples {
		if s.Score != nil {
			scores = append(scores, *s.Score)
		}
		if s.Feedback != "" {
			feedback[s.Feedback]++
		}
	}
	st.Scored = len(scores)
	if len(scores) > 0 {
		st.MeanScore = stat.Mean(scores, nil)
		st.MinScore = math.Inf(1)
		for _, v := range scores {
			st.MinScore = math.Min(st.MinScore, v)
		}
	}

	var depths, durations []float64
	for _, e := range events {
		switch e.Kind {
		case "full":
			st.Reps++
			depths = append(depths, e.Depth)
		case "half":
			st.HalfReps++
		}
		durations = append(durations, (e.Descent + e.Bottom + e.Ascent).Seconds())
	}
	if len(depths) > 0 {
		st.MeanDepth, st.DepthStdDev = stat.MeanStdDev(depths, nil)
		if math.IsNaN(st.DepthStdDev) {
			st.DepthStdDev = 0
		}
	}
	if len(durations) > 0 {
		st.MeanRep = time.Duration(stat.Mean(durations, nil) * float64(time.Second))
	}

	best := 0
	for msg, n := range feedback {
		if n > best || (n == best && msg < st.TopFeedback) {
			best, st.TopFeedback = n, msg
		}
	}
	return st
}

// Plot builds a chart of primary angle and form score over elapsed
// seconds, with a marker at each completed repetition.
func Plot(title string, samples []store.FormSample, events []store.RepEvent) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	start := samples[0].At
	elapsed := func(t time.Time) float64 { return t.Sub(start).Seconds() }

	angles := make(plotter.XYs, 0, len(samples))
	scores := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		if s.PrimaryAngle != nil {
			angles = append(angles, plotter.XY{X: elapsed(s.At), Y: *s.PrimaryAngle})
		}
		if s.Score != nil {
			scores = append(scores, plotter.XY{X: elapsed(s.At), Y: *s.Score})
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Angle (deg) / Score"
	p.Y.Min = 0
	p.Y.Max = 180
	p.Add(plotter.NewGrid())

	if len(angles) > 0 {
		line, err := plotter.NewLine(angles)
		if err != nil {
			return nil, fmt.Errorf("angle line: %w", err)
		}
		line.Color = angleColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("primary angle", line)
	}
	if len(scores) > 0 {
		line, err := plotter.NewLine(scores)
		if err != nil {
			return nil, fmt.Errorf("score line: %w", err)
		}
		line.Color = scoreColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("form score", line)
	}

	for _, kind := range []struct {
		name  string
		color color.Color
	}{{"full", fullColor}, {"half", halfColor}} {
		var pts plotter.XYs
		for _, e := range events {
			if e.Kind == kind.name {
				pts = append(pts, plotter.XY{X: elapsed(e.At), Y: e.Depth})
			}
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("%s rep markers: %w", kind.name, err)
		}
		sc.GlyphStyle.Color = kind.color
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(kind.name+" rep", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// Render writes the workout chart to path. The image format follows the
// file extension (png, svg, pdf).
func Render(title string, samples []store.FormSample, events []store.RepEvent, path string) error {
	p, err := Plot(title, samples, events)
	if err != nil {
		return err
	}
	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
