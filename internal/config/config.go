// Package config holds the command-line configuration. Flags may also be
// set through CARNIVAL_* environment variables; an explicit flag wins.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CARNIVAL"

// Landmark source kinds.
const (
	SourceRemote = "remote"
	SourceCamera = "camera"
)

type Config struct {
	Bind         string
	Port         int
	DataDir      string
	WebDir       string
	Source       string
	CameraID     int
	CanvasWidth  int
	CanvasHeight int
	GameLength   time.Duration
	Player       string
	Sound        bool
	Voice        bool
	Tray         bool
	LogLevel     string
	Verbose      bool
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Source {
	case SourceRemote, SourceCamera:
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceRemote, SourceCamera)
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.GameLength <= 0 {
		return fmt.Errorf("game length must be positive: %s", c.GameLength)
	}
	if c.CameraID < 0 {
		return fmt.Errorf("invalid camera id: %d", c.CameraID)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("--data-dir must not be empty")
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// DBPath is the sqlite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "carnival.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".carnival"
	}
	return filepath.Join(home, ".carnival")
}

// NewCommand builds the root command. run is called with the validated
// configuration.
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "carnival",
		Short:   "Webcam carnival: catch falling words with your face or play an instrument with your hands.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: CARNIVAL_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: CARNIVAL_PORT)")
	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "directory for the database (env: CARNIVAL_DATA_DIR)")
	fs.StringVar(&cfg.WebDir, "web-dir", "", "directory of static web files, searched for when empty (env: CARNIVAL_WEB_DIR)")
	fs.StringVar(&cfg.Source, "source", SourceRemote, "landmark source: remote (browser) or camera (env: CARNIVAL_SOURCE)")
	fs.IntVar(&cfg.CameraID, "camera-id", 0, "camera device for --source camera (env: CARNIVAL_CAMERA_ID)")
	fs.IntVar(&cfg.CanvasWidth, "canvas-width", 1280, "game canvas width in pixels (env: CARNIVAL_CANVAS_WIDTH)")
	fs.IntVar(&cfg.CanvasHeight, "canvas-height", 720, "game canvas height in pixels (env: CARNIVAL_CANVAS_HEIGHT)")
	fs.DurationVar(&cfg.GameLength, "game-length", 60*time.Second, "length of a word-catching round (env: CARNIVAL_GAME_LENGTH)")
	fs.StringVar(&cfg.Player, "player", "Player", "default leaderboard name (env: CARNIVAL_PLAYER)")
	fs.BoolVar(&cfg.Sound, "sound", true, "play notes (env: CARNIVAL_SOUND)")
	fs.BoolVar(&cfg.Voice, "voice", true, "enable voice commands (env: CARNIVAL_VOICE)")
	fs.BoolVar(&cfg.Tray, "tray", false, "show a system tray icon (env: CARNIVAL_TRAY)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "trace, debug, info, warn or error (env: CARNIVAL_LOG_LEVEL)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log debug output (env: CARNIVAL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("carnival v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
