package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

// SampleBatch is how many form samples a Recorder buffers before writing.
const SampleBatch = 64

// Recorder persists the updates of one session as a workout.
// It is not safe for concurrent use.
type Recorder struct {
	store   *Store
	workout *Workout
	pending []FormSample
	seq     int
}

// NewRecorder creates the workout row for a session and returns a
// Recorder writing into it.
func (s *Store) NewRecorder(sum session.Summary, startedAt time.Time) (*Recorder, error) {
	w := &Workout{
		ID:        sum.ID,
		Profile:   sum.Profile,
		Detector:  sum.Detector,
		StartedAt: startedAt,
	}
	if err := s.Workouts().Create(w); err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	return &Recorder{store: s, workout: w}, nil
}

// Workout returns the workout being recorded.
func (r *Recorder) Workout() *Workout {
	return r.workout
}

// Record stores one update. Rep events are written immediately; form
// samples are batched.
func (r *Recorder) Record(u session.Update) error {
	if errors.Is(u.Err, session.ErrNoPose) {
		return nil
	}

	s := FormSample{
		At:           u.At,
		Phase:        u.Phase.String(),
		PrimaryAngle: u.PrimaryAngle,
	}
	if u.Form != nil {
		score := u.Form.Score
		s.Score = &score
		s.Feedback = u.Form.Feedback.Message
	}
	r.pending = append(r.pending, s)

	if u.Event != nil {
		r.seq++
		e := &RepEvent{
			WorkoutID: r.workout.ID,
			Seq:       r.seq,
			Kind:      string(u.Event.Kind),
			Depth:     u.Event.Depth,
			Descent:   u.Event.Durations.Descent,
			Bottom:    u.Event.Durations.Bottom,
			Ascent:    u.Event.Durations.Ascent,
			At:        u.Event.At,
		}
		if err := r.store.Reps().Create(e); err != nil {
			return fmt.Errorf("record rep %d: %w", r.seq, err)
		}
	}

	if len(r.pending) >= SampleBatch {
		return r.Flush()
	}
	return nil
}

// Flush writes buffered form samples.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.Samples().Create(r.workout.ID, r.pending); err != nil {
		return fmt.Errorf("record samples: %w", err)
	}
	r.pending = r.pending[:0]
	return nil
}

// Finish flushes pending samples and stores the session totals.
// The workout ends at the last frame, or now if there was none.
func (r *Recorder) Finish(sum session.Summary) (*Workout, error) {
	if err := r.Flush(); err != nil {
		return nil, err
	}

	w := r.workout
	w.Reps = sum.Reps
	w.HalfReps = sum.HalfReps
	w.AvgScore = sum.AvgScore
	w.BestHold = sum.BestHold
	end := sum.LastAt
	if end.IsZero() {
		end = time.Now()
	}
	w.EndedAt = &end

	if err := r.store.Workouts().Finish(w); err != nil {
		return nil, fmt.Errorf("finish workout: %w", err)
	}
	return w, nil
}
