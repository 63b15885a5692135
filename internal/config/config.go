package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultListen    = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Environment overrides, applied after the config file.
const (
	EnvBaseURL         = "TRAVEL_BASE_URL"
	EnvListen          = "TRAVEL_LISTEN"
	EnvLogLevel        = "TRAVEL_LOG_LEVEL"
	EnvLogFormat       = "TRAVEL_LOG_FORMAT"
	EnvTimeout         = "TRAVEL_TIMEOUT"
	EnvTracingEndpoint = "TRAVEL_TRACING_ENDPOINT"
)

// Config holds front-end configuration loaded from disk and the
// environment.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	Listen          string `yaml:"listen,omitempty"`
	LogLevel        string `yaml:"log_level,omitempty"`
	LogFormat       string `yaml:"log_format,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
	TracingEndpoint string `yaml:"tracing_endpoint,omitempty"`
}

// Load reads ~/.travel/config.yaml, applies environment overrides and
// returns defaults for anything left unset. A missing file is not an error.
func Load() (Config, error) {
	var cfg Config
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	cfg, err = ReadFile(path)
	if err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ReadFile decodes one config file as written, without env overrides or
// defaults. A missing file yields the zero Config.
func ReadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if err := ensureEOF(dec); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	trim(&cfg)
	return cfg, nil
}

// Save writes cfg to ~/.travel/config.yaml, replacing the file atomically.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	trim(&cfg)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set.
// A missing file is ignored.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks every set value.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url: unsupported scheme %q", u.Scheme)
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	return nil
}

// RequestTimeout parses Timeout. Zero means the transport default.
func (c Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout: %s is negative", c.Timeout)
	}
	return d, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.BaseURL, EnvBaseURL)
	set(&cfg.Listen, EnvListen)
	set(&cfg.LogLevel, EnvLogLevel)
	set(&cfg.LogFormat, EnvLogFormat)
	set(&cfg.Timeout, EnvTimeout)
	set(&cfg.TracingEndpoint, EnvTracingEndpoint)
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
}

func trim(cfg *Config) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Listen = strings.TrimSpace(cfg.Listen)
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	cfg.LogFormat = strings.TrimSpace(cfg.LogFormat)
	cfg.Timeout = strings.TrimSpace(cfg.Timeout)
	cfg.TracingEndpoint = strings.TrimSpace(cfg.TracingEndpoint)
}

func ensureEOF(dec *yaml.Decoder) error {
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("persist %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ConfigPath returns the full path to ~/.travel/config.yaml.
func ConfigPath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns the ~/.travel directory path.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".travel"), nil
}
