package api

import (
	"errors"
	"net/http"

	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// ProfileHandler serves built-in and custom exercise profiles. Custom
// profiles are persisted when a store is configured.
type ProfileHandler struct {
	registry *profile.Registry
	store    *store.Store
}

// NewProfileHandler creates a ProfileHandler. s may be nil.
func NewProfileHandler(reg *profile.Registry, s *store.Store) *ProfileHandler {
	return &ProfileHandler{registry: reg, store: s}
}

type profileResponse struct {
	profile.Definition
	Builtin bool `json:"builtin"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

// ServeHTTP routes /api/profiles and /api/profiles/{name}.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/profiles")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.create(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.update(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, r, parts[0])
	case len(parts) > 1:
		http.NotFound(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProfileHandler) toResponse(p *profile.Profile) profileResponse {
	return profileResponse{Definition: p.Definition(), Builtin: h.registry.IsBuiltin(p.Name)}
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles := h.registry.List()
	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, h.toResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.registry.Get(name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var def profile.Definition
	if !decode(w, r, &def) {
		return
	}
	if _, err := h.registry.Get(def.Name); err == nil {
		writeError(w, http.StatusConflict, "Profile already exists: "+def.Name)
		return
	}

	p, err := def.Build()
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.store != nil {
		if err := h.store.Profiles().Create(&store.StoredProfile{Definition: p.Definition()}); err != nil {
			writeErr(w, err)
			return
		}
	}
	if err := h.registry.Add(p); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(p))
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, name string) {
	if h.registry.IsBuiltin(name) {
		writeErr(w, profile.ErrBuiltin)
		return
	}
	if _, err := h.registry.Get(name); err != nil {
		writeErr(w, err)
		return
	}

	var def profile.Definition
	if !decode(w, r, &def) {
		return
	}
	if def.Name == "" {
		def.Name = name
	}
	if def.Name != name {
		writeError(w, http.StatusBadRequest, "Profile name cannot be changed")
		return
	}

	p, err := def.Build()
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.store != nil {
		err := h.store.Profiles().Update(&store.StoredProfile{Definition: p.Definition()})
		if errors.Is(err, store.ErrNotFound) {
			// Loaded from a profile file rather than the API.
			err = h.store.Profiles().Create(&store.StoredProfile{Definition: p.Definition()})
		}
		if err != nil {
			writeErr(w, err)
			return
		}
	}
	if err := h.registry.Add(p); err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(p))
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.registry.Remove(name); err != nil {
		writeErr(w, err)
		return
	}
	if h.store != nil {
		if err := h.store.Profiles().Delete(name); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeErr(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
