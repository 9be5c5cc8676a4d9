// Package server provides the HTTP server: the JSON API, the live
// WebSocket feed and the static web UI.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/server/api"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

// Config holds the server configuration. Nil fields get fresh defaults,
// except Store, without which workout routes are not served.
type Config struct {
	StaticDir string
	Store     *store.Store
	Registry  *profile.Registry
	Sessions  *session.Manager
	Live      *Hub
	// Status reports the camera pipeline's session on /api/status when set.
	Status func() session.Summary
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Registry == nil {
		config.Registry = profile.NewRegistry()
	}
	if config.Sessions == nil {
		config.Sessions = session.NewManager(config.Registry)
	}
	if config.Live == nil {
		config.Live = NewHub()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	profiles := api.NewProfileHandler(s.config.Registry, s.config.Store)
	s.mux.Handle("/api/profiles", profiles)
	s.mux.Handle("/api/profiles/", profiles)

	sessions := api.NewSessionHandler(s.config.Sessions, s.config.Store, s.config.Live)
	s.mux.Handle("/api/sessions", sessions)
	s.mux.Handle("/api/sessions/", sessions)

	if s.config.Store != nil {
		workouts := api.NewWorkoutHandler(s.config.Store)
		s.mux.Handle("/api/workouts", workouts)
		s.mux.Handle("/api/workouts/", workouts)
	}

	s.mux.Handle("/api/live", s.config.Live)

	if s.config.Status != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Live returns the hub broadcasting session updates.
func (s *Server) Live() *Hub {
	return s.config.Live
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.start).String(),
		"sessions": len(s.config.Sessions.List()),
		"viewers":  s.config.Live.Clients(),
	}

	s.writeJSON(w, response)
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.config.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
