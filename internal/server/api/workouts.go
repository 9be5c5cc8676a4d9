package api

import (
	"net/http"

	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// WorkoutHandler serves recorded workouts.
type WorkoutHandler struct {
	store *store.Store
}

// NewWorkoutHandler creates a new WorkoutHandler with the given store.
func NewWorkoutHandler(s *store.Store) *WorkoutHandler {
	return &WorkoutHandler{store: s}
}

type listWorkoutsResponse struct {
	Workouts []*store.Workout `json:"workouts"`
}

type listRepsResponse struct {
	Reps []store.RepEvent `json:"reps"`
}

type listSamplesResponse struct {
	Samples []store.FormSample `json:"samples"`
}

// ServeHTTP routes /api/workouts, /api/workouts/{id} and its reps and
// samples.
func (h *WorkoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/workouts")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, r, parts[0])
	case len(parts) == 2 && r.Method == http.MethodGet && parts[1] == "reps":
		h.reps(w, r, parts[0])
	case len(parts) == 2 && r.Method == http.MethodGet && parts[1] == "samples":
		h.samples(w, r, parts[0])
	case len(parts) >= 2:
		http.NotFound(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WorkoutHandler) list(w http.ResponseWriter, r *http.Request) {
	workouts, err := h.store.Workouts().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workouts")
		return
	}
	if workouts == nil {
		workouts = []*store.Workout{}
	}
	writeJSON(w, http.StatusOK, listWorkoutsResponse{Workouts: workouts})
}

func (h *WorkoutHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	workout, err := h.store.Workouts().GetByID(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (h *WorkoutHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Workouts().Delete(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkoutHandler) reps(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Workouts().GetByID(id); err != nil {
		writeErr(w, err)
		return
	}
	reps, err := h.store.Reps().ListByWorkout(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reps")
		return
	}
	if reps == nil {
		reps = []store.RepEvent{}
	}
	writeJSON(w, http.StatusOK, listRepsResponse{Reps: reps})
}

func (h *WorkoutHandler) samples(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Workouts().GetByID(id); err != nil {
		writeErr(w, err)
		return
	}
	samples, err := h.store.Samples().ListByWorkout(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}
	if samples == nil {
		samples = []store.FormSample{}
	}
	writeJSON(w, http.StatusOK, listSamplesResponse{Samples: samples})
}
