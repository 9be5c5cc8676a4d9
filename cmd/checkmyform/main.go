// Package main provides the checkmyform command: a form coach that scores
// exercise technique from pose keypoints and counts repetitions.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/config"
	"github.com/mitchellnkeo/CheckMyForm/internal/detector"
	"github.com/mitchellnkeo/CheckMyForm/internal/pose"
	"github.com/mitchellnkeo/CheckMyForm/internal/profile"
	"github.com/mitchellnkeo/CheckMyForm/internal/store"
)

const (
	defaultAddr     = ":8080"
	defaultProfile  = profile.NameSquat
	detectorMock    = "mock"
	detectorMP      = "mediapipe"
	defaultMinConf  = 0.0
	defaultCameraID = 0
)

var (
	configPath   string
	dbPath       string
	profileFiles []string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "checkmyform",
		Short:         "Exercise form scoring and rep counting from pose keypoints",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "workout database")
	rootCmd.PersistentFlags().StringSliceVar(&profileFiles, "profiles", nil, "custom profile TOML files")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLiveCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newWorkoutsCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig reads the config file and applies the settings shared by every
// command.
func loadConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Store.Path)
	if !cmd.Flags().Changed("profiles") && len(fileCfg.Profiles.Files) > 0 {
		profileFiles = fileCfg.Profiles.Files
	}
	return fileCfg, nil
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		log.Printf("Failed to close db: %v", err)
	}
}

// loadRegistry returns the built-in profiles plus custom ones from profile
// files and, when st is set, the database. The default profile file is
// read only when it exists.
func loadRegistry(st *store.Store) (*profile.Registry, error) {
	reg := profile.NewRegistry()

	files := profileFiles
	if len(files) == 0 {
		if _, err := os.Stat(config.DefaultProfilesPath()); err == nil {
			files = []string{config.DefaultProfilesPath()}
		}
	}
	for _, path := range files {
		profiles, err := profile.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if err := reg.Add(p); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	if st != nil {
		if err := st.Profiles().Register(reg); err != nil {
			log.Printf("Failed to load stored profiles: %v", err)
		}
	}
	return reg, nil
}

// newDetector builds the configured pose detector. An empty kind returns
// nil so the pipeline picks MediaPipe when available.
func newDetector(kind, script, python string) (detector.Detector, error) {
	switch kind {
	case "":
		return nil, nil
	case detectorMock:
		return detector.NewMockDetector(), nil
	case detectorMP:
		cfg := detector.DefaultConfig()
		cfg.ScriptPath = script
		cfg.Python = python
		return detector.NewMediaPipeDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown detector kind %q (want %s or %s)", kind, detectorMP, detectorMock)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.checkmyform/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".checkmyform", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to stat config: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(configPath, []byte(config.Template()), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// checkMinConfidence validates a --min-confidence value; 0 keeps the default.
func checkMinConfidence(v float64) error {
	if v == 0 {
		return nil
	}
	if err := pose.ValidateThreshold(v); err != nil {
		return fmt.Errorf("--min-confidence: %w", err)
	}
	return nil
}
