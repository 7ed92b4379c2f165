package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setTestHome points $HOME at a temp dir so config and key files are
// isolated per test.
func setTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"YTHELPER_CACHE_PATH",
		"YTHELPER_REQUEST_TIMEOUT",
		"YTHELPER_REQUESTS_PER_SECOND",
		"YTHELPER_MAX_CONSECUTIVE_ERRORS",
		"YTHELPER_MAX_RETRIES",
		"YTHELPER_INITIAL_BACKOFF",
		"YTHELPER_MAX_BACKOFF",
		EnvAPIKey,
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	setTestHome(t)

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.CachePath == "" {
		t.Error("CachePath is empty")
	}
	if filepath.Base(cfg.CachePath) != "cache.sqlite3" {
		t.Errorf("CachePath = %q, want .../cache.sqlite3", cfg.CachePath)
	}
}

func TestLoadDefaults(t *testing.T) {
	setTestHome(t)
	clearEnvOverrides(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.MaxConsecutiveErrors != 10 {
		t.Errorf("MaxConsecutiveErrors = %d, want 10", cfg.MaxConsecutiveErrors)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := setTestHome(t)
	clearEnvOverrides(t)

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{"requests_per_second": 2, "max_consecutive_errors": 5}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestsPerSecond != 2 {
		t.Errorf("RequestsPerSecond = %v, want 2", cfg.RequestsPerSecond)
	}
	if cfg.MaxConsecutiveErrors != 5 {
		t.Errorf("MaxConsecutiveErrors = %d, want 5", cfg.MaxConsecutiveErrors)
	}
	// Unmentioned values keep their defaults.
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.MaxRetries)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	home := setTestHome(t)
	clearEnvOverrides(t)

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want parse error for invalid config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := setTestHome(t)
	clearEnvOverrides(t)

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"max_retries": 7}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YTHELPER_MAX_RETRIES", "1")
	t.Setenv("YTHELPER_INITIAL_BACKOFF", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want env override 1", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != 500*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 500ms", cfg.InitialBackoff)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			CachePath:            "/tmp/cache.sqlite3",
			RequestTimeout:       time.Minute,
			RequestsPerSecond:    5,
			MaxConsecutiveErrors: 10,
			MaxRetries:           3,
			InitialBackoff:       time.Second,
			MaxBackoff:           30 * time.Second,
			BackoffMultiplier:    2.0,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty cache path", func(c *Config) { c.CachePath = "" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"negative rps", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"zero consecutive errors", func(c *Config) { c.MaxConsecutiveErrors = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero initial backoff", func(c *Config) { c.InitialBackoff = 0 }},
		{"max below initial backoff", func(c *Config) { c.MaxBackoff = time.Millisecond }},
		{"multiplier not above one", func(c *Config) { c.BackoffMultiplier = 1.0 }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	setTestHome(t)
	clearEnvOverrides(t)

	if err := SaveAPIKey("stored-key"); err != nil {
		t.Fatalf("SaveAPIKey() error = %v", err)
	}

	// Stored key is the fallback.
	key, err := APIKey("")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "stored-key" {
		t.Errorf("APIKey() = %q, want stored-key", key)
	}

	// Environment beats the stored key.
	t.Setenv(EnvAPIKey, "env-key")
	key, err = APIKey("")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "env-key" {
		t.Errorf("APIKey() = %q, want env-key", key)
	}

	// Explicit value beats everything.
	key, err = APIKey("flag-key")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "flag-key" {
		t.Errorf("APIKey() = %q, want flag-key", key)
	}
}

func TestAPIKeyNoneConfigured(t *testing.T) {
	setTestHome(t)
	clearEnvOverrides(t)

	key, err := APIKey("")
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "" {
		t.Errorf("APIKey() = %q, want empty when nothing configured", key)
	}
}

func TestSaveAPIKeyPermissions(t *testing.T) {
	home := setTestHome(t)

	if err := SaveAPIKey("  secret  \n"); err != nil {
		t.Fatalf("SaveAPIKey() error = %v", err)
	}

	path := filepath.Join(home, dirName, apiKeyFile)
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 0600", perm)
	}

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() error = %v", err)
	}
	if key != "secret" {
		t.Errorf("LoadAPIKey() = %q, want trimmed %q", key, "secret")
	}
}

func TestSaveAPIKeyRejectsEmpty(t *testing.T) {
	setTestHome(t)

	if err := SaveAPIKey("   "); err == nil {
		t.Error("SaveAPIKey() error = nil, want error for blank key")
	}
}

func TestRemoveAPIKey(t *testing.T) {
	setTestHome(t)

	existed, err := RemoveAPIKey()
	if err != nil {
		t.Fatalf("RemoveAPIKey() error = %v", err)
	}
	if existed {
		t.Error("RemoveAPIKey() existed = true, want false with no key")
	}

	if err := SaveAPIKey("k"); err != nil {
		t.Fatalf("SaveAPIKey() error = %v", err)
	}
	existed, err = RemoveAPIKey()
	if err != nil {
		t.Fatalf("RemoveAPIKey() error = %v", err)
	}
	if !existed {
		t.Error("RemoveAPIKey() existed = false, want true")
	}

	key, err := LoadAPIKey()
	if err != nil {
		t.Fatalf("LoadAPIKey() error = %v", err)
	}
	if key != "" {
		t.Errorf("LoadAPIKey() = %q after removal, want empty", key)
	}
}
