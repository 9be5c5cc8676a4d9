package profile

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownProfile is returned when no profile has the requested name.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrBuiltin is returned when replacing or removing a built-in profile.
	ErrBuiltin = errors.New("built-in profile cannot be changed")
)

// Registry holds the built-in profiles and any custom ones by name.
// It is safe for concurrent use. Registered profiles must not be mutated.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]*Profile
	order    []string
	custom   map[string]*Profile
}

// NewRegistry returns a registry containing the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{
		builtins: make(map[string]*Profile),
		custom:   make(map[string]*Profile),
	}
	for _, p := range Builtins() {
		r.builtins[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	return r
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.builtins[name]; ok {
		return p, nil
	}
	if p, ok := r.custom[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
}

// IsBuiltin reports whether name is a built-in profile.
func (r *Registry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builtins[name]
	return ok
}

// Add validates p and registers it, replacing any custom profile with the
// same name.
func (r *Registry) Add(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builtins[p.Name]; ok {
		return fmt.Errorf("%w: %s", ErrBuiltin, p.Name)
	}
	r.custom[p.Name] = p
	return nil
}

// Remove unregisters a custom profile.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builtins[name]; ok {
		return fmt.Errorf("%w: %s", ErrBuiltin, name)
	}
	if _, ok := r.custom[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	delete(r.custom, name)
	return nil
}

// List returns the built-in profiles in their fixed order followed by the
// custom profiles sorted by name.
func (r *Registry) List() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.builtins)+len(r.custom))
	for _, name := range r.order {
		out = append(out, r.builtins[name])
	}

	names := make([]string, 0, len(r.custom))
	for name := range r.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, r.custom[name])
	}
	return out
}
