package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "waveshelf"

	envPrefix = "WAVESHELF_"
)

type Config struct {
	Library LibraryConfig `koanf:"library"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Import  ImportConfig  `koanf:"import"`
	Radio   RadioConfig   `koanf:"radio"`
}

// LibraryConfig holds the track store and browsing settings.
type LibraryConfig struct {
	DBPath      string `koanf:"db_path"`      // empty means $XDG_DATA_HOME/waveshelf/library.db
	Collation   string `koanf:"collation"`    // BCP 47 tag used to sort titles (default: "en")
	RecentLimit int    `koanf:"recent_limit"` // tracks shown in the recent list (default: 10)
	CacheDir    string `koanf:"cache_dir"`    // thumbnail cache, empty means $XDG_CACHE_HOME/waveshelf
}

// ServerConfig holds the HTTP display port settings.
type ServerConfig struct {
	Listen string `koanf:"listen"` // default: "127.0.0.1:7417"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `koanf:"level"` // debug, info, warn, error (default: info)
	File       string `koanf:"file"`  // empty disables the file output
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	Concurrency int    `koanf:"concurrency"` // parallel extractions (default: NumCPU)
	WatchDir    string `koanf:"watch_dir"`   // empty disables the watcher
	DebounceMS  int    `koanf:"debounce_ms"` // watcher batching window (default: 1500)
}

// RadioConfig holds the static station directory.
type RadioConfig struct {
	ConnectTimeout string          `koanf:"connect_timeout"` // Go duration (default: "10s")
	Stations       []StationConfig `koanf:"stations"`
}

// StationConfig describes one internet radio stream.
type StationConfig struct {
	ID        string `koanf:"id"`
	Title     string `koanf:"title"`
	Artist    string `koanf:"artist"`
	ArtURL    string `koanf:"art_url"`
	StreamURL string `koanf:"stream_url"`
}

// DefaultStations is used when no station is configured.
var DefaultStations = []StationConfig{
	{
		ID:        "radio1",
		Title:     "W Radio",
		Artist:    "Noticias / Entretenimiento",
		ArtURL:    "https://placehold.co/300x300/10b981/white?text=W+Radio",
		StreamURL: "https://26673.live.streamtheworld.com/WRADIOAAC_SC",
	},
	{
		ID:        "radio2",
		Title:     "Classic FM",
		Artist:    "Música Clásica",
		ArtURL:    "https://placehold.co/300x300/eab308/white?text=CLASSIC",
		StreamURL: "https://media-ssl.musicradio.com/ClassicFMMP3",
	},
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths(), ".env")
}

// LoadFrom loads the given TOML files in order (last wins), then overlays
// WAVESHELF_* variables from dotenv and the process environment.
func LoadFrom(paths []string, dotenv string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnv(k, dotenv); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Library.DBPath = expandPath(cfg.Library.DBPath)
	cfg.Library.CacheDir = expandPath(cfg.Library.CacheDir)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Import.WatchDir = expandPath(cfg.Import.WatchDir)

	return cfg, nil
}

// applyEnv sets koanf keys from WAVESHELF_SECTION_KEY variables.
// The process environment overrides the dotenv file.
func applyEnv(k *koanf.Koanf, dotenv string) error {
	vars := map[string]string{}
	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			fromFile, err := godotenv.Read(dotenv)
			if err != nil {
				return err
			}
			for key, v := range fromFile {
				vars[key] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		key, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[key] = v
		}
	}

	for key, v := range vars {
		path, ok := envKey(key)
		if !ok {
			continue
		}
		if err := k.Set(path, v); err != nil {
			return err
		}
	}
	return nil
}

// envKey maps WAVESHELF_SERVER_LISTEN to server.listen. Only the first
// underscore after the prefix separates section from key.
func envKey(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, envPrefix)
	if !ok || rest == "" {
		return "", false
	}
	section, key, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || section == "" || key == "" {
		return "", false
	}
	return section + "." + key, true
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/waveshelf/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetLibraryConfig returns the library configuration with defaults applied.
func (c *Config) GetLibraryConfig() (LibraryConfig, error) {
	cfg := c.Library

	if cfg.DBPath == "" {
		p, err := xdg.DataFile(filepath.Join(appName, "library.db"))
		if err != nil {
			return cfg, err
		}
		cfg.DBPath = p
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, appName, "thumbnails")
	}
	if cfg.Collation == "" {
		cfg.Collation = "en"
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 10
	}

	return cfg, nil
}

// GetServerConfig returns the server configuration with defaults applied.
func (c *Config) GetServerConfig() ServerConfig {
	cfg := c.Server
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:7417"
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 20
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 28
	}
	return cfg
}

// GetImportConfig returns the import configuration with defaults applied.
func (c *Config) GetImportConfig() ImportConfig {
	cfg := c.Import
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = 1500
	}
	return cfg
}

// Debounce returns the watcher batching window.
func (c ImportConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// GetRadioConfig returns the radio configuration with defaults applied.
func (c *Config) GetRadioConfig() RadioConfig {
	cfg := c.Radio

	if d, err := time.ParseDuration(cfg.ConnectTimeout); err != nil || d <= 0 {
		cfg.ConnectTimeout = "10s"
	}
	if len(cfg.Stations) == 0 {
		cfg.Stations = append([]StationConfig(nil), DefaultStations...)
	}

	return cfg
}

// Timeout returns the parsed connect timeout, 10s when unset or invalid.
func (c RadioConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
