package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mitchellnkeo/CheckMyForm/internal/app"
	"github.com/mitchellnkeo/CheckMyForm/internal/server"
	"github.com/mitchellnkeo/CheckMyForm/internal/session"
	"github.com/mitchellnkeo/CheckMyForm/internal/tray"
)

var (
	liveProfile   string
	liveCamera    int
	liveVideo     string
	liveFPS       int
	liveDetector  string
	liveScript    string
	livePython    string
	liveMinConf   float64
	liveAddr      string
	liveStaticDir string
	liveNoTray    bool
	liveNoSave    bool
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Track a workout from the camera with tray and dashboard",
		Args:  cobra.NoArgs,
		RunE:  runLiveCmd,
	}
	cmd.Flags().StringVar(&liveProfile, "profile", defaultProfile, "exercise profile")
	cmd.Flags().IntVar(&liveCamera, "camera", defaultCameraID, "camera device id")
	cmd.Flags().StringVar(&liveVideo, "video", "", "read frames from a video file instead of the camera")
	cmd.Flags().IntVar(&liveFPS, "fps", 0, "frames per second (0 keeps the default)")
	cmd.Flags().StringVar(&liveDetector, "detector", "", "pose detector: mediapipe or mock (default: mediapipe when available)")
	cmd.Flags().StringVar(&liveScript, "script", "", "pose service script")
	cmd.Flags().StringVar(&livePython, "python", "", "Python interpreter for the pose service")
	cmd.Flags().Float64Var(&liveMinConf, "min-confidence", defaultMinConf, "keypoint confidence gate (0 keeps the default)")
	cmd.Flags().StringVar(&liveAddr, "addr", defaultAddr, "dashboard listen address (empty disables)")
	cmd.Flags().StringVar(&liveStaticDir, "static-dir", "", "web UI directory (default: search common locations)")
	cmd.Flags().BoolVar(&liveNoTray, "no-tray", false, "run without the system tray")
	cmd.Flags().BoolVar(&liveNoSave, "no-save", false, "do not record the workout")
	return cmd
}

func runLiveCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "profile", &liveProfile, fileCfg.Profiles.Default)
	applyIntConfig(cmd, "camera", &liveCamera, fileCfg.Camera.Device)
	applyIntConfig(cmd, "fps", &liveFPS, fileCfg.Camera.FPS)
	applyStringConfig(cmd, "detector", &liveDetector, fileCfg.Detector.Kind)
	applyStringConfig(cmd, "script", &liveScript, fileCfg.Detector.Script)
	applyStringConfig(cmd, "python", &livePython, fileCfg.Detector.Python)
	applyFloatConfig(cmd, "min-confidence", &liveMinConf, fileCfg.Detector.MinConfidence)
	if err := checkMinConfidence(liveMinConf); err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &liveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "static-dir", &liveStaticDir, fileCfg.Server.StaticDir)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	reg, err := loadRegistry(st)
	if err != nil {
		return err
	}

	det, err := newDetector(liveDetector, liveScript, livePython)
	if err != nil {
		return err
	}

	cfg := app.Config{
		Registry:      reg,
		Profile:       liveProfile,
		CameraID:      liveCamera,
		VideoFile:     liveVideo,
		FPS:           liveFPS,
		MinConfidence: liveMinConf,
		Detector:      det,
	}
	if !liveNoSave {
		cfg.Store = st
	}
	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	var srv *server.Server
	if liveAddr != "" {
		if liveStaticDir == "" {
			liveStaticDir = findWebDir()
		}
		srv = server.New(server.Config{
			StaticDir: liveStaticDir,
			Store:     st,
			Registry:  reg,
			Status:    application.Summary,
		})
		application.OnUpdate(func(u session.Update) {
			srv.Live().Broadcast(u)
		})
		go func() {
			log.Printf("Dashboard on http://localhost%s", liveAddr)
			if err := srv.ListenAndServe(liveAddr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if err := application.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if liveNoTray {
		select {
		case <-ctx.Done():
		case <-application.Done():
		}
	} else {
		runTray(ctx, application)
	}

	sum, err := application.Stop()
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

// runTray blocks until the tray quits, the context ends or the recording
// runs out.
func runTray(ctx context.Context, application *app.App) {
	t := tray.New(application.Profile().Title())
	t.OnToggle(application.SetEnabled)
	t.OnSettings(func() {
		if liveAddr == "" {
			return
		}
		if err := openBrowser("http://localhost" + liveAddr); err != nil {
			log.Printf("Failed to open dashboard: %v", err)
		}
	})
	application.OnUpdate(t.Update)

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-application.Done():
		case <-exited:
			return
		}
		t.Quit()
	}()
	t.Run()
	close(exited)
}

func openBrowser(url string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		name = "xdg-open"
	}
	if err := exec.Command(name, url).Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
