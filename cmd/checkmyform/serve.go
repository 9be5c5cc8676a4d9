package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/server"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
)

var (
	serveAddr      string
	serveStaticDir string
	serveMinConf   float64
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for clients that send their own keypoints",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "web UI directory (default: search common locations)")
	cmd.Flags().Float64Var(&serveMinConf, "min-confidence", defaultMinConf, "keypoint confidence gate (0 keeps the default)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "static-dir", &serveStaticDir, fileCfg.Server.StaticDir)
	applyFloatConfig(cmd, "min-confidence", &serveMinConf, fileCfg.Detector.MinConfidence)
	if err := checkMinConfidence(serveMinConf); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	reg, err := loadRegistry(st)
	if err != nil {
		return err
	}

	sessions := session.NewManager(reg)
	if serveMinConf != 0 {
		if err := sessions.SetConfidenceThreshold(serveMinConf); err != nil {
			return err
		}
	}

	if serveStaticDir == "" {
		serveStaticDir = findWebDir()
	}
	if serveStaticDir != "" {
		log.Printf("Serving static files from: %s", serveStaticDir)
	}

	srv := server.New(server.Config{
		StaticDir: serveStaticDir,
		Store:     st,
		Registry:  reg,
		Sessions:  sessions,
	})

	log.Printf("Starting server on %s (db %s)", serveAddr, dbPath)
	if err := srv.ListenAndServe(serveAddr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
