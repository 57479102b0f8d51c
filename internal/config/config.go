package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Mock    MockConfig
	Seed    SeedConfig
	Client  ClientConfig
	Notes   NotesConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// MockConfig tunes the simulated network of the mock API.
type MockConfig struct {
	LatencyMin         time.Duration
	LatencyMax         time.Duration
	FailureRate        float64
	ReorderFailureRate float64
	ReadFailureRate    float64
}

// SeedConfig sizes the fixture generated on first start. RandomSeed 0 means
// time based.
type SeedConfig struct {
	Jobs        int
	Candidates  int
	Assessments int
	RandomSeed  int
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type NotesConfig struct {
	Author string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Mock: MockConfig{
			LatencyMin:         200 * time.Millisecond,
			LatencyMax:         1200 * time.Millisecond,
			FailureRate:        0.08,
			ReorderFailureRate: 0.20,
		},
		Seed: SeedConfig{
			Jobs:        25,
			Candidates:  1000,
			Assessments: 5,
		},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
		},
		Notes: NotesConfig{
			Author: "HR Manager",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/talentflow/config.json, then applies TALENTFLOW_*
// environment overrides, then validates the result.
func Load() (Config, error) {
	return loadWith(openBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = fmt.Sprintf("http://127.0.0.1:%d/api", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is empty"))
	}
	if c.Mock.LatencyMin < 0 || c.Mock.LatencyMin > c.Mock.LatencyMax {
		errs = append(errs, fmt.Errorf("mock.latency_min %s must be between 0 and mock.latency_max %s", c.Mock.LatencyMin, c.Mock.LatencyMax))
	}
	for key, rate := range map[string]float64{
		"mock.failure_rate":         c.Mock.FailureRate,
		"mock.reorder_failure_rate": c.Mock.ReorderFailureRate,
		"mock.read_failure_rate":    c.Mock.ReadFailureRate,
	} {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Errorf("%s %v outside [0,1]", key, rate))
		}
	}
	if c.Seed.Jobs < 0 || c.Seed.Candidates < 0 || c.Seed.Assessments < 0 {
		errs = append(errs, errors.New("seed sizes must not be negative"))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ServerDir holds the mock API's own document store.
func (c Config) ServerDir() string { return filepath.Join(c.Storage.DataDir, "server") }

// CacheDir holds the client-side mirror the entity stores fall back to.
func (c Config) CacheDir() string { return filepath.Join(c.Storage.DataDir, "cache") }

// LocalDir is the device-local draft area.
func (c Config) LocalDir() string { return filepath.Join(c.Storage.DataDir, "local") }

// PIDFile is where serve records its process id.
func (c Config) PIDFile() string { return filepath.Join(c.Storage.DataDir, "talentflow.pid") }
