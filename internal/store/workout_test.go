package store

import (
	"errors"
	"testing"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func createWorkout(t *testing.T, s *Store, id string, startedAt time.Time) *Workout {
	t.Helper()
	w := &Workout{ID: id, Profile: profile.NameSquat, Detector: "coco-17", StartedAt: startedAt}
	if err := s.Workouts().Create(w); err != nil {
		t.Fatalf("failed to create workout: %v", err)
	}
	return w
}

func TestWorkoutRepository_CreateAndFinish(t *testing.T) {
	s := newTestStore(t)
	repo := s.Workouts()

	createWorkout(t, s, "w1", start)

	got, err := repo.GetByID("w1")
	if err != nil {
		t.Fatalf("failed to get workout: %v", err)
	}
	if got.Profile != profile.NameSquat || got.Detector != "coco-17" {
		t.Errorf("unexpected workout: %+v", got)
	}
	if !got.StartedAt.Equal(start) {
		t.Errorf("StartedAt mismatch: got %v, want %v", got.StartedAt, start)
	}
	if got.EndedAt != nil {
		t.Error("EndedAt should be nil before finishing")
	}

	end := start.Add(2 * time.Minute)
	got.EndedAt = &end
	got.Reps = 12
	got.HalfReps = 2
	got.AvgScore = 84.5
	got.BestHold = 1500 * time.Millisecond
	if err := repo.Finish(got); err != nil {
		t.Fatalf("failed to finish workout: %v", err)
	}

	finished, err := repo.GetByID("w1")
	if err != nil {
		t.Fatalf("failed to get workout: %v", err)
	}
	if finished.EndedAt == nil || !finished.EndedAt.Equal(end) {
		t.Errorf("EndedAt mismatch: got %v, want %v", finished.EndedAt, end)
	}
	if finished.Reps != 12 || finished.HalfReps != 2 {
		t.Errorf("rep totals mismatch: got %d/%d", finished.Reps, finished.HalfReps)
	}
	if finished.AvgScore != 84.5 {
		t.Errorf("AvgScore mismatch: got %f", finished.AvgScore)
	}
	if finished.BestHold != 1500*time.Millisecond {
		t.Errorf("BestHold mismatch: got %v", finished.BestHold)
	}
}

func TestWorkoutRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Workouts()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Finish(&Workout{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Finish, got %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestWorkoutRepository_List(t *testing.T) {
	s := newTestStore(t)

	createWorkout(t, s, "older", start)
	createWorkout(t, s, "newer", start.Add(time.Hour))

	workouts, err := s.Workouts().List()
	if err != nil {
		t.Fatalf("failed to list workouts: %v", err)
	}
	if len(workouts) != 2 {
		t.Fatalf("expected 2 workouts, got %d", len(workouts))
	}
	if workouts[0].ID != "newer" || workouts[1].ID != "older" {
		t.Errorf("expected most recent first, got %s, %s", workouts[0].ID, workouts[1].ID)
	}
}

func TestWorkoutRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	createWorkout(t, s, "w1", start)

	if err := s.Reps().Create(&RepEvent{WorkoutID: "w1", Seq: 1, Kind: "full", Depth: 80, At: start}); err != nil {
		t.Fatalf("failed to create rep: %v", err)
	}
	score := 90.0
	if err := s.Samples().Create("w1", []FormSample{{At: start, Score: &score, Phase: "standing"}}); err != nil {
		t.Fatalf("failed to create sample: %v", err)
	}

	if err := s.Workouts().Delete("w1"); err != nil {
		t.Fatalf("failed to delete workout: %v", err)
	}

	for _, table := range []string{"rep_events", "form_samples"} {
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("failed to count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("expected %s to be emptied by cascade, found %d rows", table, n)
		}
	}
}

func TestRepRepository(t *testing.T) {
	s := newTestStore(t)
	createWorkout(t, s, "w1", start)
	repo := s.Reps()

	events := []*RepEvent{
		{WorkoutID: "w1", Seq: 2, Kind: "half", Depth: 120, Descent: 400 * time.Millisecond, Ascent: 500 * time.Millisecond, At: start.Add(4 * time.Second)},
		{WorkoutID: "w1", Seq: 1, Kind: "full", Depth: 72.5, Descent: 800 * time.Millisecond, Bottom: 250 * time.Millisecond, Ascent: 700 * time.Millisecond, At: start.Add(2 * time.Second)},
	}
	for _, e := range events {
		if err := repo.Create(e); err != nil {
			t.Fatalf("failed to create rep: %v", err)
		}
		if e.ID == 0 {
			t.Error("ID should be set after create")
		}
	}

	got, err := repo.ListByWorkout("w1")
	if err != nil {
		t.Fatalf("failed to list reps: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reps, got %d", len(got))
	}
	if got[0].Seq != 1 || got[0].Kind != "full" || got[0].Depth != 72.5 {
		t.Errorf("unexpected first rep: %+v", got[0])
	}
	if got[0].Bottom != 250*time.Millisecond || got[0].Descent != 800*time.Millisecond {
		t.Errorf("durations mismatch: %+v", got[0])
	}

	err = repo.Create(&RepEvent{WorkoutID: "missing", Seq: 1, Kind: "full", At: start})
	if err == nil {
		t.Error("expected foreign key violation for unknown workout")
	}
}

func TestSampleRepository(t *testing.T) {
	s := newTestStore(t)
	createWorkout(t, s, "w1", start)
	repo := s.Samples()

	score, angle := 77.5, 141.0
	samples := []FormSample{
		{At: start.Add(time.Second), Score: &score, Phase: "descending", PrimaryAngle: &angle, Feedback: "Keep your back straight"},
		{At: start, Phase: "standing"},
	}
	if err := repo.Create("w1", samples); err != nil {
		t.Fatalf("failed to create samples: %v", err)
	}

	got, err := repo.ListByWorkout("w1")
	if err != nil {
		t.Fatalf("failed to list samples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if got[0].Score != nil || got[0].PrimaryAngle != nil {
		t.Errorf("expected unscored first sample, got %+v", got[0])
	}
	if got[1].Score == nil || *got[1].Score != score {
		t.Errorf("score mismatch: %+v", got[1])
	}
	if got[1].PrimaryAngle == nil || *got[1].PrimaryAngle != angle {
		t.Errorf("primary angle mismatch: %+v", got[1])
	}
	if got[1].Feedback != "Keep your back straight" {
		t.Errorf("feedback mismatch: %q", got[1].Feedback)
	}
}

func TestProfileRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	custom := profile.Squat()
	custom.Name = "box-squat"
	custom.DisplayName = "Box squat"
	sp := &StoredProfile{Definition: custom.Definition()}

	if err := repo.Create(sp); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := repo.Create(sp); err == nil {
		t.Error("expected duplicate name to fail")
	}

	got, err := repo.Get("box-squat")
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	built, err := got.Definition.Build()
	if err != nil {
		t.Fatalf("stored definition should build: %v", err)
	}
	if built.Title() != "Box squat" || len(built.Metrics) != 3 {
		t.Errorf("unexpected profile: %+v", built)
	}

	sp.Definition.DisplayName = "Box squat (wide)"
	if err := repo.Update(sp); err != nil {
		t.Fatalf("failed to update profile: %v", err)
	}
	got, err = repo.Get("box-squat")
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if got.Definition.DisplayName != "Box squat (wide)" {
		t.Errorf("update not applied: %q", got.Definition.DisplayName)
	}

	reg := profile.NewRegistry()
	if err := repo.Register(reg); err != nil {
		t.Fatalf("failed to register profiles: %v", err)
	}
	if _, err := reg.Get("box-squat"); err != nil {
		t.Errorf("stored profile should be registered: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 profile, got %d", len(list))
	}

	if err := repo.Delete("box-squat"); err != nil {
		t.Fatalf("failed to delete profile: %v", err)
	}
	if _, err := repo.Get("box-squat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Update(sp); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
}
