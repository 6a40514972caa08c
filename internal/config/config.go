// Package config loads reader configuration from a JSONC file and applies
// command-line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// FileName is the project config file looked up in the working directory.
const FileName = "torah.jsonc"

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// DefaultSchemaVersion tags persisted cache entries. Bumping it invalidates
// every entry written under an older version.
const DefaultSchemaVersion = "1.0.0"

// DefaultStaleAfter is how long a persisted entry stays fresh.
const DefaultStaleAfter = 24 * time.Hour

var (
	errConfigInvalid      = errors.New("invalid config")
	errConfigFileNotFound = errors.New("config file not found")
)

// Duration is a time.Duration read from a string such as "24h" or "90s".
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or seconds: %s", data)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config holds reader configuration.
type Config struct {
	// DataRoot is an http(s) URL or a local directory holding the data tree.
	DataRoot string `json:"dataRoot"`

	// BasePath is the deployment prefix joined with DataRoot for URLs,
	// e.g. "/torah-v2/".
	BasePath string `json:"basePath,omitempty"`

	// CacheDir holds the persistent cache database.
	CacheDir string `json:"cacheDir,omitempty"`

	// CacheBackend is "sqlite", "bolt" or "memory".
	CacheBackend string `json:"cacheBackend,omitempty"`

	SchemaVersion string   `json:"schemaVersion,omitempty"`
	StaleAfter    Duration `json:"staleAfter,omitempty"`

	// MemoSize caps the in-memory memo by entry count (0 = unlimited).
	MemoSize int `json:"memoSize,omitempty"`

	// HTTPTimeout bounds each HTTP fetch (0 = client default).
	HTTPTimeout Duration `json:"httpTimeout,omitempty"`

	LogLevel  string `json:"logLevel,omitempty"`
	LogFormat string `json:"logFormat,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataRoot:      "data",
		CacheDir:      defaultCacheDir(),
		CacheBackend:  BackendSQLite,
		SchemaVersion: DefaultSchemaVersion,
		StaleAfter:    Duration(DefaultStaleAfter),
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "torah")
	}
	return filepath.Join(os.TempDir(), "torah-cache")
}

// Load reads configuration from path, or from FileName in workDir when path
// is empty. An explicit path must exist; the default file is optional.
// Fields absent from the file keep their defaults.
func Load(workDir, path string) (Config, string, error) {
	cfg := Default()

	mustExist := path != ""
	file := path
	if file == "" {
		file = filepath.Join(workDir, FileName)
	} else if !filepath.IsAbs(file) {
		file = filepath.Join(workDir, file)
	}

	data, err := os.ReadFile(file) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, "", nil
		}
		if os.IsNotExist(err) {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}
		return Config{}, "", fmt.Errorf("read config %s: %w", file, err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, file, err)
	}
	return cfg, file, nil
}

// Parse decodes JSONC data over cfg.
func Parse(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Overrides carries command-line values. Empty fields leave the loaded
// configuration untouched.
type Overrides struct {
	DataRoot     string
	BasePath     string
	CacheDir     string
	CacheBackend string
	LogLevel     string
	LogFormat    string
}

// Apply copies non-empty overrides into cfg.
func (c *Config) Apply(o Overrides) {
	if o.DataRoot != "" {
		c.DataRoot = o.DataRoot
	}
	if o.BasePath != "" {
		c.BasePath = o.BasePath
	}
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if o.CacheBackend != "" {
		c.CacheBackend = o.CacheBackend
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
}

// Validate checks the configuration for values the reader cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataRoot) == "" {
		return fmt.Errorf("%w: dataRoot must not be empty", errConfigInvalid)
	}
	switch c.CacheBackend {
	case BackendSQLite, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown cacheBackend %q", errConfigInvalid, c.CacheBackend)
	}
	if c.CacheBackend != BackendMemory && c.CacheDir == "" {
		return fmt.Errorf("%w: cacheDir required for %s backend", errConfigInvalid, c.CacheBackend)
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("%w: schemaVersion must not be empty", errConfigInvalid)
	}
	if c.StaleAfter < 0 || c.HTTPTimeout < 0 || c.MemoSize < 0 {
		return fmt.Errorf("%w: negative staleAfter, httpTimeout or memoSize", errConfigInvalid)
	}
	return nil
}

// IsRemote reports whether DataRoot is an http(s) URL.
func (c *Config) IsRemote() bool {
	return strings.HasPrefix(c.DataRoot, "http://") || strings.HasPrefix(c.DataRoot, "https://")
}
