// Package config reads the optional TOML configuration file. Every value is
// a pointer so that unset keys leave the command-line defaults alone.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Camera   CameraConfig   `toml:"camera"`
	Detector DetectorConfig `toml:"detector"`
	Profiles ProfilesConfig `toml:"profiles"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr      *string `toml:"addr"`
	StaticDir *string `toml:"static-dir"`
}

// StoreConfig maps database settings.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// CameraConfig maps capture settings.
type CameraConfig struct {
	Device *int `toml:"device"`
	FPS    *int `toml:"fps"`
}

// DetectorConfig maps pose detector settings.
type DetectorConfig struct {
	// Kind is "mediapipe" or "mock".
	Kind          *string  `toml:"kind"`
	Script        *string  `toml:"script"`
	Python        *string  `toml:"python"`
	MinConfidence *float64 `toml:"min-confidence"`
}

// ProfilesConfig maps exercise profile settings.
type ProfilesConfig struct {
	Default *string  `toml:"default"`
	Files   []string `toml:"files"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not
// an error; unknown keys are.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Template returns a commented configuration file listing every key.
func Template() string {
	return fmt.Sprintf(`# CheckMyForm configuration
# Uncomment a value to enable it. CLI flags override config values.

[server]
# addr = ":8080"
# static-dir = "web"

[store]
# path = %q

[camera]
# device = 0
# fps = 15

[detector]
# kind = "mediapipe"          # or "mock"
# script = "scripts/pose_service.py"
# python = "venv/bin/python"
# min-confidence = 0.3

[profiles]
# default = "squat"
# files = [%q]
`, DefaultDBPath(), DefaultProfilesPath())
}
