package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
)

// StoredProfile is a custom exercise profile saved through the API.
type StoredProfile struct {
	Definition profile.Definition `json:"definition"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ProfileRepository provides CRUD operations for custom profiles, keyed by
// profile name.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a profile definition.
func (r *ProfileRepository) Create(p *StoredProfile) error {
	data, err := json.Marshal(p.Definition)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO profiles (name, definition, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.Definition.Name, string(data), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func scanProfile(row rowScanner) (*StoredProfile, error) {
	p := &StoredProfile{}
	var name, data string
	if err := row.Scan(&name, &data, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Definition); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
	}
	return p, nil
}

// Get retrieves a profile definition by name.
func (r *ProfileRepository) Get(name string) (*StoredProfile, error) {
	p, err := scanProfile(r.db.QueryRow(
		`SELECT name, definition, created_at, updated_at FROM profiles WHERE name = ?`, name,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all profile definitions sorted by name.
func (r *ProfileRepository) List() ([]*StoredProfile, error) {
	rows, err := r.db.Query(`SELECT name, definition, created_at, updated_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*StoredProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update replaces the definition of an existing profile.
func (r *ProfileRepository) Update(p *StoredProfile) error {
	data, err := json.Marshal(p.Definition)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET definition = ?, updated_at = ? WHERE name = ?`,
		string(data), p.UpdatedAt, p.Definition.Name,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a profile by name.
func (r *ProfileRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Register builds every stored profile and adds it to reg. Profiles that no
// longer validate are skipped and reported together.
func (r *ProfileRepository) Register(reg *profile.Registry) error {
	stored, err := r.List()
	if err != nil {
		return err
	}

	var errs []error
	for _, sp := range stored {
		p, err := sp.Definition.Build()
		if err == nil {
			err = reg.Add(p)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
