package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/recording"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// Broadcaster fans session updates out to live viewers.
type Broadcaster interface {
	Broadcast(v any)
}

// SessionHandler runs analysis sessions fed with keypoints by the client.
// With a store configured every session is recorded as a workout.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
	live     Broadcaster

	mu        sync.Mutex
	recorders map[string]*lockedRecorder
}

type lockedRecorder struct {
	mu  sync.Mutex
	rec *store.Recorder
}

// NewSessionHandler creates a SessionHandler. s and live may be nil.
func NewSessionHandler(m *session.Manager, s *store.Store, live Broadcaster) *SessionHandler {
	return &SessionHandler{
		sessions:  m,
		store:     s,
		live:      live,
		recorders: make(map[string]*lockedRecorder),
	}
}

type createSessionRequest struct {
	Profile  string `json:"profile"`
	Detector string `json:"detector"`
}

type listSessionsResponse struct {
	Sessions []session.Summary `json:"sessions"`
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/frames.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.sessions.List()})
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.create(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.end(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "frames" && r.Method == http.MethodPost:
		h.submit(w, r, parts[0])
	case len(parts) > 2 || (len(parts) == 2 && parts[1] != "frames"):
		http.NotFound(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Detector == "" {
		req.Detector = pose.DetectorCOCO17
	}

	sum, err := h.sessions.Create(req.Profile, req.Detector)
	if err != nil {
		writeErr(w, err)
		return
	}

	if h.store != nil {
		rec, err := h.store.NewRecorder(sum, time.Now())
		if err != nil {
			h.sessions.End(sum.ID)
			writeErr(w, err)
			return
		}
		h.mu.Lock()
		h.recorders[sum.ID] = &lockedRecorder{rec: rec}
		h.mu.Unlock()
	}

	writeJSON(w, http.StatusCreated, sum)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sum, err := h.sessions.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *SessionHandler) submit(w http.ResponseWriter, r *http.Request, id string) {
	var req recording.Frame
	if !decode(w, r, &req) {
		return
	}
	f, err := req.Session(time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.sessions.Submit(id, f)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.mu.Lock()
	lr := h.recorders[id]
	h.mu.Unlock()
	if lr != nil {
		lr.mu.Lock()
		err := lr.rec.Record(u)
		lr.mu.Unlock()
		if err != nil {
			log.Printf("Failed to record session %s: %v", id, err)
		}
	}

	if h.live != nil {
		h.live.Broadcast(u)
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *SessionHandler) end(w http.ResponseWriter, r *http.Request, id string) {
	sum, err := h.sessions.End(id)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.mu.Lock()
	lr := h.recorders[id]
	delete(h.recorders, id)
	h.mu.Unlock()
	if lr != nil {
		lr.mu.Lock()
		_, err := lr.rec.Finish(sum)
		lr.mu.Unlock()
		if err != nil {
			writeErr(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, sum)
}
