package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/20after4/configdir"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	appName          = "nowplaying"
	settingsFileName = "settings.toml"
	envPrefix        = "NOWPLAYING_"
)

// Duration is a time.Duration that reads from TOML and env as "500ms", "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings are the daemon's tunables. Precedence, lowest first: defaults,
// the TOML file, .env files, NOWPLAYING_* environment, command-line flags
// (applied by the caller).
type Settings struct {
	ConfigDir    string   `toml:"config_dir"`
	PollInterval Duration `toml:"poll_interval"`
	CallTimeout  Duration `toml:"call_timeout"`
	ArtTimeout   Duration `toml:"art_timeout"`
	ArtMaxBytes  int64    `toml:"art_max_bytes"`
	ArtMaxEdge   int      `toml:"art_max_edge"`
	CommandRate  float64  `toml:"command_rate"`
	Addr         string   `toml:"addr"`
	LogLevel     string   `toml:"log_level"`
	LogFormat    string   `toml:"log_format"`
	Zeroconf     bool     `toml:"zeroconf"`
	APIKey       string   `toml:"api_key"` // "" leaves the API open
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	return configdir.LocalConfig(appName)
}

// DefaultSettingsPath returns the settings file inside DefaultConfigDir.
func DefaultSettingsPath() string {
	return filepath.Join(DefaultConfigDir(), settingsFileName)
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		ConfigDir:    DefaultConfigDir(),
		PollInterval: Duration{500 * time.Millisecond},
		CallTimeout:  Duration{2 * time.Second},
		ArtTimeout:   Duration{10 * time.Second},
		ArtMaxBytes:  8 << 20,
		ArtMaxEdge:   512,
		CommandRate:  20,
		Addr:         "127.0.0.1:7878",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadSettings reads path (DefaultSettingsPath when empty) over the defaults,
// then applies envFiles and the process environment. A missing settings
// file or env file is not an error.
func LoadSettings(path string, envFiles ...string) (*Settings, error) {
	return loadSettings(path, envFiles, os.LookupEnv)
}

func loadSettings(path string, envFiles []string, lookup func(string) (string, bool)) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		path = DefaultSettingsPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	fileEnv := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading env file %s: %w", f, err)
		}
		for k, v := range vals {
			fileEnv[k] = v
		}
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	if err := s.applyEnv(get); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (s *Settings) applyEnv(get func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := get(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *Duration) error {
		if v, ok := get(envPrefix + name); ok && v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
		}
		return nil
	}
	num := func(name string, parse func(string) error) error {
		if v, ok := get(envPrefix + name); ok && v != "" {
			if err := parse(v); err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
		}
		return nil
	}

	str("CONFIG_DIR", &s.ConfigDir)
	str("ADDR", &s.Addr)
	str("LOG_LEVEL", &s.LogLevel)
	str("LOG_FORMAT", &s.LogFormat)
	str("API_KEY", &s.APIKey)

	return errors.Join(
		dur("POLL_INTERVAL", &s.PollInterval),
		dur("CALL_TIMEOUT", &s.CallTimeout),
		dur("ART_TIMEOUT", &s.ArtTimeout),
		num("ART_MAX_BYTES", func(v string) (err error) {
			s.ArtMaxBytes, err = strconv.ParseInt(v, 10, 64)
			return err
		}),
		num("ART_MAX_EDGE", func(v string) (err error) {
			s.ArtMaxEdge, err = strconv.Atoi(v)
			return err
		}),
		num("COMMAND_RATE", func(v string) (err error) {
			s.CommandRate, err = strconv.ParseFloat(v, 64)
			return err
		}),
		num("ZEROCONF", func(v string) (err error) {
			s.Zeroconf, err = strconv.ParseBool(v)
			return err
		}),
	)
}

// Validate checks settings are within acceptable bounds.
func (s *Settings) Validate() error {
	if s.PollInterval.Duration < 50*time.Millisecond || s.PollInterval.Duration > time.Minute {
		return fmt.Errorf("poll_interval %s out of range (50ms..1m)", s.PollInterval)
	}
	if s.CallTimeout.Duration <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	if s.ArtTimeout.Duration <= 0 {
		return fmt.Errorf("art_timeout must be positive")
	}
	if s.ArtMaxBytes < 1024 {
		return fmt.Errorf("art_max_bytes %d too small (min 1024)", s.ArtMaxBytes)
	}
	if s.ArtMaxEdge < 16 || s.ArtMaxEdge > 4096 {
		return fmt.Errorf("art_max_edge %d out of range (16..4096)", s.ArtMaxEdge)
	}
	if s.CommandRate <= 0 {
		return fmt.Errorf("command_rate must be positive")
	}
	if s.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if s.ConfigDir == "" {
		return fmt.Errorf("config_dir cannot be empty")
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (valid: debug, info, warn, error)", s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log_format %q (valid: text, json)", s.LogFormat)
	}
	return nil
}
