package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Server   ServerConfig   `toml:"server"`
	Browser  BrowserConfig  `toml:"browser"`
	Output   OutputConfig   `toml:"output"`
	Baseline BaselineConfig `toml:"baseline"`
	Watch    WatchConfig    `toml:"watch"`
	History  HistoryConfig  `toml:"history"`
}

type ServerConfig struct {
	Root         string `toml:"root"`
	Host         string `toml:"host"`
	StartupDelay string `toml:"startup_delay"`
	AccessLog    bool   `toml:"access_log"`
}

type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	ExecPath     string `toml:"exec_path"`
	NoSandbox    bool   `toml:"no_sandbox"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	StepTimeout  string `toml:"step_timeout"`
}

type OutputConfig struct {
	Dir    string `toml:"dir"`
	Report bool   `toml:"report"`
}

type BaselineConfig struct {
	Dir       string  `toml:"dir"`
	Threshold float64 `toml:"threshold"`
}

type WatchConfig struct {
	Schedule  string   `toml:"schedule"`
	Scenarios []string `toml:"scenarios"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Keep    string `toml:"keep"`
}

const (
	defaultStartupDelay = 2 * time.Second
	defaultStepTimeout  = 30 * time.Second
	defaultHistoryKeep  = 30 * 24 * time.Hour
)

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Root:         ".",
			Host:         "localhost",
			StartupDelay: defaultStartupDelay.String(),
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1280,
			WindowHeight: 720,
			StepTimeout:  defaultStepTimeout.String(),
		},
		Output: OutputConfig{
			Dir:    "/home/jules/verification",
			Report: true,
		},
		Baseline: BaselineConfig{
			Threshold: 0.1,
		},
		Watch: WatchConfig{
			Schedule:  "@every 10m",
			Scenarios: []string{},
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    defaultHistoryKeep.String(),
		},
	}
}

// StartupDelayDuration returns the pause between starting the file server and
// launching the browser.
func (c *Config) StartupDelayDuration() time.Duration {
	return parseDuration("server.startup_delay", c.Server.StartupDelay, defaultStartupDelay)
}

// StepTimeoutDuration bounds every single browser call.
func (c *Config) StepTimeoutDuration() time.Duration {
	return parseDuration("browser.step_timeout", c.Browser.StepTimeout, defaultStepTimeout)
}

// HistoryKeepDuration is how long recorded runs are kept. Zero keeps them
// forever.
func (c *Config) HistoryKeepDuration() time.Duration {
	return parseDuration("history.keep", c.History.Keep, defaultHistoryKeep)
}

func parseDuration(key, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("[config] invalid %s %q, using %v", key, value, fallback)
		return fallback
	}
	return d
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "menuprobe"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "menuprobe"), nil
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrCreate loads the config at path (the default location when path is
// empty), writing the defaults if the file does not exist yet.
func LoadOrCreate(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	cfg = Default()
	if err := cfg.SaveFile(path); err != nil {
		log.Printf("[config] could not save default config: %v", err)
	} else {
		log.Printf("[config] created default config at: %s", path)
	}
	return cfg, nil
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
