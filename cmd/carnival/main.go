package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/carnival/internal/app"
	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/config"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/logging"
	"github.com/ayusman/carnival/internal/mode"
	"github.com/ayusman/carnival/internal/server"
	"github.com/ayusman/carnival/internal/store"
	"github.com/ayusman/carnival/internal/tracking"
	"github.com/ayusman/carnival/internal/tray"
)

const version = "0.3.0"

func main() {
	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, version, run)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.Verbose)
	log.Info().Str("version", version).Msg("carnival starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving static files")
	} else {
		log.Warn().Msg("no web directory found; only the API is served")
	}

	canvas := mode.Size{W: float64(cfg.CanvasWidth), H: float64(cfg.CanvasHeight)}

	var (
		source  tracking.Source
		remote  *tracking.Remote
		preview server.FrameSource
	)
	switch cfg.Source {
	case config.SourceCamera:
		cam, err := newCameraSource(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			cam.Close()
			cam.Wait()
		}()
		source, preview = cam, cam
	default:
		remote = tracking.NewRemote(log)
		source = remote
	}

	hub := server.NewHub(remote, log)
	ctrl := app.New(app.Config{
		Source:      source,
		Audio:       audio.SynthFactory(log),
		Store:       st,
		Recognizer:  hub,
		Synthesizer: hub,
		Log:         log,
		Canvas:      canvas,
		GameLength:  cfg.GameLength,
		Player:      cfg.Player,
		Sound:       cfg.Sound,
		Voice:       cfg.Voice,
	})
	hub.Bind(ctrl)

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Controller: ctrl,
		Hub:        hub,
		Preview:    preview,
		Canvas:     canvas,
		Log:        log,
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	spawn := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errs <- err
				cancel()
			}
		}()
	}
	spawn(func() error { return ctrl.Run(ctx) })
	spawn(func() error { return srv.Run(ctx, cfg.Addr()) })
	go hub.Run(ctx)

	if cfg.Tray {
		runTray(ctx, cancel, ctrl, browserURL(cfg), log)
	}

	wg.Wait()
	close(errs)
	return <-errs
}

func newCameraSource(cfg *config.Config, log zerolog.Logger) (*tracking.CameraSource, error) {
	det, err := detector.NewMediaPipe(detector.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("camera source needs the landmark service: %w", err)
	}
	opts := capture.DefaultOptions()
	opts.DeviceID = cfg.CameraID
	return tracking.NewCameraSource(tracking.CameraOptions{
		Camera:   capture.NewCamera(opts),
		Detector: det,
		Gate:     capture.NewMotionGate(capture.DefaultMotionThreshold, capture.DefaultHold),
		Log:      log,
	}), nil
}

// runTray shows the tray menu and blocks until it is closed. The tray must
// run on the main goroutine.
func runTray(ctx context.Context, cancel context.CancelFunc, ctrl *app.Controller, url string, log zerolog.Logger) {
	t := tray.New()
	t.OnMode(func(name mode.Name) {
		if err := ctrl.ChooseMode(ctx, string(name)); err != nil {
			log.Warn().Err(err).Str("mode", string(name)).Msg("tray: choose mode")
		}
	})
	t.OnSound(func(on bool) {
		if err := ctrl.SetSound(ctx, on); err != nil {
			log.Warn().Err(err).Msg("tray: set sound")
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("tray: open browser")
		}
	})
	t.OnQuit(cancel)

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		var last uint64
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				if st := ctrl.State(); st != nil && st.Version != last {
					last = st.Version
					t.Sync(st)
				}
			}
		}
	}()

	t.Run()
}

func browserURL(cfg *config.Config) string {
	host := cfg.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d/", host, cfg.Port)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.carnival/web.
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

	homeWebDir := filepath.Join(homeDir, ".carnival", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
