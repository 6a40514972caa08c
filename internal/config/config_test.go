package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SchemaVersion != "1.0.0" || time.Duration(cfg.StaleAfter) != 24*time.Hour {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.CacheBackend != BackendSQLite || cfg.MemoSize != 0 {
		t.Errorf("Default() backend/memo = %s/%d", cfg.CacheBackend, cfg.MemoSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadJSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `{
		// remote deployment
		"dataRoot": "https://example.org",
		"basePath": "/torah-v2/",
		"cacheBackend": "bolt",
		"staleAfter": "12h",
		"httpTimeout": 30, /* seconds */
		"memoSize": 500,
	}`)

	cfg, src, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src != filepath.Join(dir, FileName) {
		t.Errorf("source = %q", src)
	}

	want := Default()
	want.DataRoot = "https://example.org"
	want.BasePath = "/torah-v2/"
	want.CacheBackend = BackendBolt
	want.StaleAfter = Duration(12 * time.Hour)
	want.HTTPTimeout = Duration(30 * time.Second)
	want.MemoSize = 500
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if !cfg.IsRemote() {
		t.Error("IsRemote() = false for https root")
	}
}

func TestLoadMissingDefaultIsOptional(t *testing.T) {
	cfg, src, err := Load(t.TempDir(), "")
	if err != nil || src != "" {
		t.Fatalf("Load() = %q, %v", src, err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults changed:\n%s", diff)
	}
}

func TestLoadExplicitMustExist(t *testing.T) {
	_, _, err := Load(t.TempDir(), "nope.jsonc")
	if !errors.Is(err, errConfigFileNotFound) {
		t.Errorf("Load() error = %v, want not found", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"broken.jsonc":   `{"dataRoot": `,
		"duration.jsonc": `{"staleAfter": "soon"}`,
	} {
		writeFile(t, dir, name, content)
		if _, _, err := Load(dir, name); !errors.Is(err, errConfigInvalid) {
			t.Errorf("Load(%s) error = %v, want invalid", name, err)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.Apply(Overrides{DataRoot: "/srv/torah", CacheBackend: BackendMemory, LogLevel: "debug"})

	if cfg.DataRoot != "/srv/torah" || cfg.CacheBackend != BackendMemory || cfg.LogLevel != "debug" {
		t.Errorf("Apply() = %+v", cfg)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("empty override changed LogFormat to %q", cfg.LogFormat)
	}
	if cfg.IsRemote() {
		t.Error("local directory reported as remote")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data root", func(c *Config) { c.DataRoot = " " }},
		{"unknown backend", func(c *Config) { c.CacheBackend = "redis" }},
		{"missing cache dir", func(c *Config) { c.CacheDir = "" }},
		{"empty schema version", func(c *Config) { c.SchemaVersion = "" }},
		{"negative memo", func(c *Config) { c.MemoSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errConfigInvalid) {
				t.Errorf("Validate() = %v, want invalid", err)
			}
		})
	}

	cfg := Default()
	cfg.CacheBackend = BackendMemory
	cfg.CacheDir = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory backend without cache dir: %v", err)
	}
}

func TestDurationJSON(t *testing.T) {
	d := Duration(90 * time.Second)
	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"1m30s"` {
		t.Errorf("MarshalJSON() = %s, %v", b, err)
	}
	var back Duration
	if err := back.UnmarshalJSON(b); err != nil || back != d {
		t.Errorf("UnmarshalJSON() = %v, %v", back, err)
	}
	if err := back.UnmarshalJSON([]byte(`true`)); err == nil {
		t.Error("UnmarshalJSON(true) should fail")
	}
}
