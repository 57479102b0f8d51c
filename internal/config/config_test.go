package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) *fileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return newFileBackend(path)
}

// TestDefaults verifies all default values are applied when loading an empty config file.
func TestDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	cfg, err := loadWith(writeTempConfig(t, `{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/xdg-data/talentflow" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Mock.LatencyMin != 200*time.Millisecond || cfg.Mock.LatencyMax != 1200*time.Millisecond {
		t.Errorf("latency = %s..%s, want 200ms..1.2s", cfg.Mock.LatencyMin, cfg.Mock.LatencyMax)
	}
	if cfg.Mock.FailureRate != 0.08 {
		t.Errorf("FailureRate = %v, want 0.08", cfg.Mock.FailureRate)
	}
	if cfg.Mock.ReorderFailureRate != 0.20 {
		t.Errorf("ReorderFailureRate = %v, want 0.20", cfg.Mock.ReorderFailureRate)
	}
	if cfg.Seed.Jobs != 25 || cfg.Seed.Candidates != 1000 || cfg.Seed.Assessments != 5 {
		t.Errorf("Seed = %+v", cfg.Seed)
	}
	if cfg.Client.BaseURL != "http://127.0.0.1:4100/api" {
		t.Errorf("Client.BaseURL = %q", cfg.Client.BaseURL)
	}
	if cfg.Notes.Author != "HR Manager" {
		t.Errorf("Notes.Author = %q", cfg.Notes.Author)
	}
}

// TestFileParsing verifies that every key type is read from the JSON file.
func TestFileParsing(t *testing.T) {
	b := writeTempConfig(t, `{
  "server.port": 5100,
  "storage.data_dir": "/tmp/talentflow-test",
  "mock.latency_min": "0s",
  "mock.latency_max": "50ms",
  "mock.failure_rate": 0.5,
  "seed.jobs": "3",
  "notes.author": "Recruiter"
}`)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5100 {
		t.Errorf("Server.Port = %d, want 5100", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/talentflow-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Mock.LatencyMin != 0 || cfg.Mock.LatencyMax != 50*time.Millisecond {
		t.Errorf("latency = %s..%s", cfg.Mock.LatencyMin, cfg.Mock.LatencyMax)
	}
	if cfg.Mock.FailureRate != 0.5 {
		t.Errorf("FailureRate = %v", cfg.Mock.FailureRate)
	}
	if cfg.Seed.Jobs != 3 {
		t.Errorf("Seed.Jobs = %d", cfg.Seed.Jobs)
	}
	if cfg.Client.BaseURL != "http://127.0.0.1:5100/api" {
		t.Errorf("Client.BaseURL = %q, want it derived from the port", cfg.Client.BaseURL)
	}
	if cfg.Notes.Author != "Recruiter" {
		t.Errorf("Notes.Author = %q", cfg.Notes.Author)
	}
	if cfg.ServerDir() != "/tmp/talentflow-test/server" || cfg.CacheDir() != "/tmp/talentflow-test/cache" {
		t.Errorf("store dirs = %q, %q", cfg.ServerDir(), cfg.CacheDir())
	}
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	b := writeTempConfig(t, `{"server.port": 5100, "mock.failure_rate": 0.5}`)

	t.Setenv("TALENTFLOW_SERVER_PORT", "6100")
	t.Setenv("TALENTFLOW_MOCK_FAILURE_RATE", "0")
	t.Setenv("TALENTFLOW_CLIENT_TIMEOUT", "2s")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6100 {
		t.Errorf("Server.Port = %d, want 6100", cfg.Server.Port)
	}
	if cfg.Mock.FailureRate != 0 {
		t.Errorf("FailureRate = %v, want 0", cfg.Mock.FailureRate)
	}
	if cfg.Client.Timeout != 2*time.Second {
		t.Errorf("Client.Timeout = %s, want 2s", cfg.Client.Timeout)
	}
}

// TestInvalidValueKeepsDefault verifies unparsable values warn and fall back.
func TestInvalidValueKeepsDefault(t *testing.T) {
	b := writeTempConfig(t, `{"mock.latency_max": "soon"}`)
	t.Setenv("TALENTFLOW_MOCK_REORDER_FAILURE_RATE", "often")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mock.LatencyMax != 1200*time.Millisecond {
		t.Errorf("LatencyMax = %s, want default", cfg.Mock.LatencyMax)
	}
	if cfg.Mock.ReorderFailureRate != 0.20 {
		t.Errorf("ReorderFailureRate = %v, want default", cfg.Mock.ReorderFailureRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"latency inverted", func(c *Config) { c.Mock.LatencyMin = 2 * time.Second }, "mock.latency_min"},
		{"rate too high", func(c *Config) { c.Mock.FailureRate = 1.5 }, "mock.failure_rate"},
		{"negative rate", func(c *Config) { c.Mock.ReadFailureRate = -0.1 }, "mock.read_failure_rate"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	b := writeTempConfig(t, `{"mock.latency_min": "5s", "mock.latency_max": "1s"}`)
	if _, err := loadWith(b); err == nil {
		t.Fatal("expected error for inverted latency range")
	}
}

func TestSetKey(t *testing.T) {
	b := writeTempConfig(t, `{}`)

	if err := setKey(b, "server.port", "4200"); err != nil {
		t.Fatalf("setKey port: %v", err)
	}
	if err := setKey(b, "mock.latency_max", "300ms"); err != nil {
		t.Fatalf("setKey latency: %v", err)
	}
	if err := setKey(b, "mock.failure_rate", "2"); err == nil {
		t.Error("expected out of range rate to be rejected")
	}
	if err := setKey(b, "client.timeout", "forever"); err == nil {
		t.Error("expected unparsable duration to be rejected")
	}
	if err := setKey(b, "nope", "1"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("unknown key error = %v", err)
	}

	cfg, err := loadWith(newFileBackend(b.path))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("Server.Port = %d, want 4200", cfg.Server.Port)
	}
	if cfg.Mock.LatencyMax != 300*time.Millisecond {
		t.Errorf("LatencyMax = %s, want 300ms", cfg.Mock.LatencyMax)
	}
}

func TestShowAllCoversKeys(t *testing.T) {
	infos := ShowAll(defaults())
	keys := ValidKeys()
	if len(infos) != len(keys) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(infos), len(keys))
	}
	for i, info := range infos {
		if info.Key != keys[i] {
			t.Errorf("key %d = %q, want %q", i, info.Key, keys[i])
		}
		if !strings.HasPrefix(info.EnvVar, "TALENTFLOW_") {
			t.Errorf("%s env var = %q", info.Key, info.EnvVar)
		}
	}
}
