package store

import (
	"database/sql"
	"time"
)

// FormSample is a periodic snapshot of form during a workout. Score and
// PrimaryAngle are nil for frames that could not be scored.
type FormSample struct {
	ID           int64     `json:"id"`
	WorkoutID    string    `json:"workout_id"`
	At           time.Time `json:"at"`
	Score        *float64  `json:"score,omitempty"`
	Phase        string    `json:"phase"`
	PrimaryAngle *float64  `json:"primary_angle,omitempty"`
	Feedback     string    `json:"feedback,omitempty"`
}

// SampleRepository stores form samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the form sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Create inserts samples for a workout in a single transaction.
func (r *SampleRepository) Create(workoutID string, samples []FormSample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO form_samples (workout_id, at, score, phase, primary_angle, feedback)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(workoutID, s.At, nullFloat(s.Score), s.Phase, nullFloat(s.PrimaryAngle), s.Feedback); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByWorkout returns a workout's samples in time order.
func (r *SampleRepository) ListByWorkout(workoutID string) ([]FormSample, error) {
	rows, err := r.db.Query(
		`SELECT id, workout_id, at, score, phase, primary_angle, feedback
		 FROM form_samples
		 WHERE workout_id = ?
		 ORDER BY at, id`,
		workoutID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []FormSample
	for rows.Next() {
		var s FormSample
		var score, primary sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.At, &score, &s.Phase, &primary, &s.Feedback); err != nil {
			return nil, err
		}
		if score.Valid {
			s.Score = &score.Float64
		}
		if primary.Valid {
			s.PrimaryAngle = &primary.Float64
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
