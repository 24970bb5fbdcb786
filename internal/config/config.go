package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DevelopmentSignature is the client signature Acrolinx hands out for
// integration development; production deployments replace it.
const DevelopmentSignature = "SW50ZWdyYXRpb25EZXZlbG9wbWVudERlbW9Pbmx5"

// Environment variables that override file values.
const (
	EnvServerURL       = "ACROLINX_URL"
	EnvAccessToken     = "ACROLINX_ACCESS_TOKEN"
	EnvClientSignature = "ACROLINX_CLIENT_SIGNATURE"
)

// PollConfig controls how result URLs are polled
type PollConfig struct {
	// MaxAttempts is the number of result requests before giving up
	MaxAttempts int `yaml:"max_attempts"`

	// Interval is the fixed wait before each result request
	Interval time.Duration `yaml:"interval"`

	// HonorRetryAfter uses the server's progress.retryAfter hint instead of Interval
	HonorRetryAfter bool `yaml:"honor_retry_after"`

	// CancelOnAbandon asks the server to cancel a check that is given up on
	CancelOnAbandon bool `yaml:"cancel_on_abandon"`
}

// Config represents acrocheck configuration options
type Config struct {
	// ServerURL is the Acrolinx server base URL
	ServerURL string `yaml:"server_url"`

	// ClientSignature identifies this integration to the server
	ClientSignature string `yaml:"client_signature"`

	// AccessToken is an explicit token; empty means "ask the credential store"
	AccessToken string `yaml:"access_token"`

	// DefaultTarget is a guidance profile id used when a document has none remembered
	DefaultTarget string `yaml:"default_target"`

	// Poll contains result polling configuration
	Poll PollConfig `yaml:"poll"`

	// RequestTimeout bounds each HTTP request
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory for file logs; relative paths are resolved
	// against the acrocheck home by Load
	LogDir string `yaml:"log_dir"`

	// DebugDir receives the last-seen server payloads; empty disables dumps
	DebugDir string `yaml:"debug_dir"`

	// ContentFormats overrides entries of the mode -> content format table
	ContentFormats map[string]string `yaml:"content_formats"`

	// ExtensionModes overrides entries of the file extension -> mode table
	ExtensionModes map[string]string `yaml:"extension_modes"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ClientSignature: DevelopmentSignature,
		Poll: PollConfig{
			MaxAttempts:     30,
			Interval:        2 * time.Second,
			HonorRetryAfter: false,
			CancelOnAbandon: true,
		},
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
		LogDir:         "logs",
		ContentFormats: map[string]string{},
		ExtensionModes: map[string]string{},
	}
}

// fileConfig mirrors Config with optional fields so that only values
// present in the file override defaults. Durations are strings ("2s").
type fileConfig struct {
	ServerURL       *string           `yaml:"server_url" toml:"server_url"`
	ClientSignature *string           `yaml:"client_signature" toml:"client_signature"`
	AccessToken     *string           `yaml:"access_token" toml:"access_token"`
	DefaultTarget   *string           `yaml:"default_target" toml:"default_target"`
	Poll            *filePollConfig   `yaml:"poll" toml:"poll"`
	RequestTimeout  string            `yaml:"request_timeout" toml:"request_timeout"`
	LogLevel        *string           `yaml:"log_level" toml:"log_level"`
	LogDir          *string           `yaml:"log_dir" toml:"log_dir"`
	DebugDir        *string           `yaml:"debug_dir" toml:"debug_dir"`
	ContentFormats  map[string]string `yaml:"content_formats" toml:"content_formats"`
	ExtensionModes  map[string]string `yaml:"extension_modes" toml:"extension_modes"`
}

type filePollConfig struct {
	MaxAttempts     *int   `yaml:"max_attempts" toml:"max_attempts"`
	Interval        string `yaml:"interval" toml:"interval"`
	HonorRetryAfter *bool  `yaml:"honor_retry_after" toml:"honor_retry_after"`
	CancelOnAbandon *bool  `yaml:"cancel_on_abandon" toml:"cancel_on_abandon"`
}

// LoadConfig loads configuration from the specified file path.
// YAML is assumed unless the extension is .toml.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.merge(fc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(fc fileConfig) error {
	setString(&c.ServerURL, fc.ServerURL)
	setString(&c.ClientSignature, fc.ClientSignature)
	setString(&c.AccessToken, fc.AccessToken)
	setString(&c.DefaultTarget, fc.DefaultTarget)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogDir, fc.LogDir)
	setString(&c.DebugDir, fc.DebugDir)

	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout format %q: %w", fc.RequestTimeout, err)
		}
		c.RequestTimeout = d
	}

	if p := fc.Poll; p != nil {
		if p.MaxAttempts != nil {
			c.Poll.MaxAttempts = *p.MaxAttempts
		}
		if p.Interval != "" {
			d, err := parseInterval(p.Interval)
			if err != nil {
				return fmt.Errorf("invalid poll.interval format %q: %w", p.Interval, err)
			}
			c.Poll.Interval = d
		}
		if p.HonorRetryAfter != nil {
			c.Poll.HonorRetryAfter = *p.HonorRetryAfter
		}
		if p.CancelOnAbandon != nil {
			c.Poll.CancelOnAbandon = *p.CancelOnAbandon
		}
	}

	for k, v := range fc.ContentFormats {
		c.ContentFormats[strings.ToLower(k)] = v
	}
	for k, v := range fc.ExtensionModes {
		c.ExtensionModes[normalizeExt(k)] = v
	}
	return nil
}

// parseInterval accepts a Go duration ("1.5s") or a bare number of seconds ("1.5").
func parseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// LoadConfigFromDir loads configuration from the first of config.yaml,
// config.yml or config.toml found in dir.
// If none exists, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	return DefaultConfig(), nil
}

// ApplyEnv overrides values from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := getenv(EnvAccessToken); v != "" {
		c.AccessToken = v
	}
	if v := getenv(EnvClientSignature); v != "" {
		c.ClientSignature = v
	}
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(serverURL *string, target *string, maxAttempts *int, interval *time.Duration, logLevel *string) {
	if serverURL != nil {
		c.ServerURL = *serverURL
	}
	if target != nil {
		c.DefaultTarget = *target
	}
	if maxAttempts != nil {
		c.Poll.MaxAttempts = *maxAttempts
	}
	if interval != nil {
		c.Poll.Interval = *interval
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("poll.max_attempts must be >= 1, got %d", c.Poll.MaxAttempts)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must be >= 0, got %v", c.Poll.Interval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be >= 0, got %v", c.RequestTimeout)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server_url must be an absolute http(s) URL, got %q", c.ServerURL)
		}
	}
	return nil
}

// RequireServer reports whether enough is configured to reach a server.
func (c *Config) RequireServer() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("no server URL configured (set server_url or %s)", EnvServerURL)
	}
	if strings.TrimSpace(c.ClientSignature) == "" {
		return fmt.Errorf("no client signature configured (set client_signature or %s)", EnvClientSignature)
	}
	return nil
}
