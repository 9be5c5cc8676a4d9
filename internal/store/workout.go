package store

import (
	"database/sql"
	"errors"
	"time"
)

// Workout is one recorded exercise session.
type Workout struct {
	ID        string        `json:"id"`
	Profile   string        `json:"profile"`
	Detector  string        `json:"detector"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Reps      int           `json:"reps"`
	HalfReps  int           `json:"half_reps"`
	AvgScore  float64       `json:"avg_score"`
	BestHold  time.Duration `json:"best_hold"`
}

// WorkoutRepository provides CRUD operations for workouts.
type WorkoutRepository struct {
	db *sql.DB
}

// Workouts returns the workout repository for this store.
func (s *Store) Workouts() *WorkoutRepository {
	return &WorkoutRepository{db: s.db}
}

const workoutColumns = `id, profile, detector, started_at, ended_at, reps, half_reps, avg_score, best_hold_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*Workout, error) {
	w := &Workout{}
	var ended sql.NullTime
	var holdMS int64
	if err := row.Scan(&w.ID, &w.Profile, &w.Detector, &w.StartedAt, &ended, &w.Reps, &w.HalfReps, &w.AvgScore, &holdMS); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		w.EndedAt = &t
	}
	w.BestHold = time.Duration(holdMS) * time.Millisecond
	return w, nil
}

// Create inserts a new workout. StartedAt defaults to now.
func (r *WorkoutRepository) Create(w *Workout) error {
	if w.StartedAt.IsZero() {
		w.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO workouts (`+workoutColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Profile, w.Detector, w.StartedAt, nullTime(w.EndedAt),
		w.Reps, w.HalfReps, w.AvgScore, w.BestHold.Milliseconds(),
	)
	return err
}

// GetByID retrieves a workout by its ID.
func (r *WorkoutRepository) GetByID(id string) (*Workout, error) {
	w, err := scanWorkout(r.db.QueryRow(
		`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// List retrieves all workouts, most recent first.
func (r *WorkoutRepository) List() ([]*Workout, error) {
	rows, err := r.db.Query(`SELECT ` + workoutColumns + ` FROM workouts ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}

// Finish records the end time and totals of a workout. EndedAt defaults
// to now.
func (r *WorkoutRepository) Finish(w *Workout) error {
	if w.EndedAt == nil {
		now := time.Now()
		w.EndedAt = &now
	}

	result, err := r.db.Exec(
		`UPDATE workouts SET ended_at = ?, reps = ?, half_reps = ?, avg_score = ?, best_hold_ms = ?
		 WHERE id = ?`,
		*w.EndedAt, w.Reps, w.HalfReps, w.AvgScore, w.BestHold.Milliseconds(), w.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a workout together with its rep events and samples.
func (r *WorkoutRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
