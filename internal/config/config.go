// Package config loads agent settings from a TOML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file name searched for when none is given
const DefaultFile = "posapp.toml"

// Config is the full agent configuration
type Config struct {
	Port      string          `toml:"port"`
	Store     StoreConfig     `toml:"store"`
	Render    RenderConfig    `toml:"render"`
	Timeouts  TimeoutConfig   `toml:"timeouts"`
	Legacy    LegacyConfig    `toml:"legacy"`
	Bluetooth BluetoothConfig `toml:"bluetooth"`
	Network   NetworkConfig   `toml:"network"`

	// NoTUI disables the console UI
	NoTUI bool `toml:"-"`
	// File is the config file that was loaded, if any
	File string `toml:"-"`
}

// StoreConfig selects the profile store
type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// RenderConfig tunes receipt layout
type RenderConfig struct {
	DotsPerChar  int     `toml:"dots_per_char"`
	LogoScale    float64 `toml:"logo_scale"`
	DeferFooters bool    `toml:"defer_footers"`
	FeedLines    int     `toml:"feed_lines"`
	KeyValueGap  int     `toml:"key_value_gap"`
}

// TimeoutConfig bounds blocking steps
type TimeoutConfig struct {
	Connect time.Duration `toml:"connect"`
	Write   time.Duration `toml:"write"`
	Settle  time.Duration `toml:"settle"`
	Attempt time.Duration `toml:"attempt"`
	Retry   time.Duration `toml:"retry"`
	Logo    time.Duration `toml:"logo"`
}

// LegacyConfig is the single printer used when routing does not apply
type LegacyConfig struct {
	Kind       string `toml:"kind"`
	Address    string `toml:"address"`
	PaperWidth int    `toml:"paper_width"`
}

// BluetoothConfig tunes Bluetooth transports and cut fallback
type BluetoothConfig struct {
	RawUnreliable   bool `toml:"raw_unreliable"`
	ClassicFallback bool `toml:"classic_fallback"`
	RFCOMMChannel   int  `toml:"rfcomm_channel"`
}

// NetworkConfig tunes network transports and cut fallback
type NetworkConfig struct {
	DirectCut     bool `toml:"direct_cut"`
	CutUnreliable bool `toml:"cut_unreliable"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:  "12212",
		Store: StoreConfig{Backend: "json", Path: "printer_profiles.json"},
		Render: RenderConfig{
			DotsPerChar: 12,
			LogoScale:   1,
			FeedLines:   2,
			KeyValueGap: 1,
		},
		Timeouts: TimeoutConfig{
			Connect: 5 * time.Second,
			Write:   10 * time.Second,
			Settle:  300 * time.Millisecond,
			Attempt: 30 * time.Second,
			Retry:   time.Second,
			Logo:    10 * time.Second,
		},
		Legacy:    LegacyConfig{Kind: "network", PaperWidth: 576},
		Bluetooth: BluetoothConfig{RawUnreliable: true, ClassicFallback: true, RFCOMMChannel: 1},
		Network:   NetworkConfig{DirectCut: true},
	}
}

// Load builds the configuration from args (without the program name),
// the environment and the config file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("posapp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	port := fs.String("port", "", "HTTP port")
	file := fs.String("config", "", "config file path")
	profiles := fs.String("profiles", "", "profile store path")
	noTUI := fs.Bool("no-tui", false, "disable the console UI")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("invalid arguments: %w", err)
	}

	path := *file
	if path == "" {
		path = os.Getenv("POSAPP_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = findFile(DefaultFile)
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case !explicit && errors.Is(err, os.ErrNotExist):
			// No config file is fine; defaults apply
		default:
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if *port != "" {
		cfg.Port = *port
	}
	if *profiles != "" {
		cfg.Store.Path = *profiles
	}
	cfg.NoTUI = *noTUI

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a TOML file over the defaults
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg.File = path
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("POSAPP_PROFILES"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate checks values that would otherwise fail late
func (c Config) Validate() error {
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.Render.LogoScale <= 0 {
		return fmt.Errorf("logo_scale must be positive")
	}
	if c.Bluetooth.RFCOMMChannel < 0 || c.Bluetooth.RFCOMMChannel > 30 {
		return fmt.Errorf("invalid rfcomm_channel %d", c.Bluetooth.RFCOMMChannel)
	}
	switch c.Store.Backend {
	case "json", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// StorePath resolves the store path. Relative paths live next to the
// executable when that directory is writable, else in the working directory.
func (c Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(baseDir(), c.Store.Path)
}

// findFile returns name next to the executable, or in the working
// directory, whichever exists first
func findFile(name string) string {
	for _, dir := range searchDirs() {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func searchDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

func baseDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		test := filepath.Join(dir, ".posapp-write-test")
		if f, err := os.Create(test); err == nil {
			f.Close()
			os.Remove(test)
			return dir
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
