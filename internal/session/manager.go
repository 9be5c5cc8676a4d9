package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	mu sync.Mutex
	s  *Session
}

// Manager owns concurrent sessions. Calls on one session are serialized;
// different sessions proceed independently.
type Manager struct {
	registry  *profile.Registry
	threshold float64

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager returns a manager resolving profiles through reg.
func NewManager(reg *profile.Registry) *Manager {
	return &Manager{
		registry:  reg,
		threshold: pose.DefaultConfidenceThreshold,
		sessions:  make(map[string]*entry),
	}
}

// SetConfidenceThreshold sets the keypoint gate for sessions created later.
func (m *Manager) SetConfidenceThreshold(t float64) error {
	if err := pose.ValidateThreshold(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = t
	return nil
}

// Create starts a session for the named profile and detector.
func (m *Manager) Create(profileName, detectorID string) (Summary, error) {
	prof, err := m.registry.Get(profileName)
	if err != nil {
		return Summary{}, err
	}
	mapping, err := pose.MappingFor(detectorID)
	if err != nil {
		return Summary{}, err
	}
	s, err := New(uuid.NewString(), prof, mapping)
	if err != nil {
		return Summary{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.threshold = m.threshold
	m.sessions[s.ID()] = &entry{s: s}
	return s.Summary(), nil
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// Submit feeds a frame to the session.
func (m *Manager) Submit(id string, f Frame) (Update, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Update{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Submit(f), nil
}

// Get returns the session's summary.
func (m *Manager) Get(id string) (Summary, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Summary{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Summary(), nil
}

// End removes the session and returns its final summary.
func (m *Manager) End(id string) (Summary, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.Summary(), nil
}

// List returns summaries of all sessions, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.s.Summary())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
