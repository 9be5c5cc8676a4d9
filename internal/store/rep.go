package store

import (
	"database/sql"
	"time"
)

// RepEvent is one completed repetition of a workout.
type RepEvent struct {
	ID        int64         `json:"id"`
	WorkoutID string        `json:"workout_id"`
	Seq       int           `json:"seq"`
	Kind      string        `json:"kind"`
	Depth     float64       `json:"depth"`
	Descent   time.Duration `json:"descent"`
	Bottom    time.Duration `json:"bottom"`
	Ascent    time.Duration `json:"ascent"`
	At        time.Time     `json:"at"`
}

// RepRepository stores rep events.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep event repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Create inserts a rep event and sets its ID.
func (r *RepRepository) Create(e *RepEvent) error {
	result, err := r.db.Exec(
		`INSERT INTO rep_events (workout_id, seq, kind, depth, descent_ms, bottom_ms, ascent_ms, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.WorkoutID, e.Seq, e.Kind, e.Depth,
		e.Descent.Milliseconds(), e.Bottom.Milliseconds(), e.Ascent.Milliseconds(), e.At,
	)
	if err != nil {
		return err
	}

	e.ID, err = result.LastInsertId()
	return err
}

// ListByWorkout returns a workout's rep events in order.
func (r *RepRepository) ListByWorkout(workoutID string) ([]RepEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, workout_id, seq, kind, depth, descent_ms, bottom_ms, ascent_ms, at
		 FROM rep_events
		 WHERE workout_id = ?
		 ORDER BY seq, id`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RepEvent
	for rows.Next() {
		var e RepEvent
		var descent, bottom, ascent int64
		if err := rows.Scan(&e.ID, &e.WorkoutID, &e.Seq, &e.Kind, &e.Depth, &descent, &bottom, &ascent, &e.At); err != nil {
			return nil, err
		}
		e.Descent = time.Duration(descent) * time.Millisecond
		e.Bottom = time.Duration(bottom) * time.Millisecond
		e.Ascent = time.Duration(ascent) * time.Millisecond
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
