package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
)

func (t keyType) String() string {
	switch t {
	case kInt:
		return "integer"
	case kFloat:
		return "float"
	case kDuration:
		return "duration"
	default:
		return "string"
	}
}

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "TALENTFLOW_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "TALENTFLOW_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "TALENTFLOW_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "mock.latency_min", typ: kDuration, env: "TALENTFLOW_MOCK_LATENCY_MIN",
		apply:   func(cfg *Config, v any) { cfg.Mock.LatencyMin = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Mock.LatencyMin },
	},
	{
		key: "mock.latency_max", typ: kDuration, env: "TALENTFLOW_MOCK_LATENCY_MAX",
		apply:   func(cfg *Config, v any) { cfg.Mock.LatencyMax = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Mock.LatencyMax },
	},
	{
		key: "mock.failure_rate", typ: kFloat, env: "TALENTFLOW_MOCK_FAILURE_RATE",
		apply:   func(cfg *Config, v any) { cfg.Mock.FailureRate = v.(float64) },
		extract: func(cfg Config) any { return cfg.Mock.FailureRate },
	},
	{
		key: "mock.reorder_failure_rate", typ: kFloat, env: "TALENTFLOW_MOCK_REORDER_FAILURE_RATE",
		apply:   func(cfg *Config, v any) { cfg.Mock.ReorderFailureRate = v.(float64) },
		extract: func(cfg Config) any { return cfg.Mock.ReorderFailureRate },
	},
	{
		key: "mock.read_failure_rate", typ: kFloat, env: "TALENTFLOW_MOCK_READ_FAILURE_RATE",
		apply:   func(cfg *Config, v any) { cfg.Mock.ReadFailureRate = v.(float64) },
		extract: func(cfg Config) any { return cfg.Mock.ReadFailureRate },
	},
	{
		key: "seed.jobs", typ: kInt, env: "TALENTFLOW_SEED_JOBS",
		apply:   func(cfg *Config, v any) { cfg.Seed.Jobs = v.(int) },
		extract: func(cfg Config) any { return cfg.Seed.Jobs },
	},
	{
		key: "seed.candidates", typ: kInt, env: "TALENTFLOW_SEED_CANDIDATES",
		apply:   func(cfg *Config, v any) { cfg.Seed.Candidates = v.(int) },
		extract: func(cfg Config) any { return cfg.Seed.Candidates },
	},
	{
		key: "seed.assessments", typ: kInt, env: "TALENTFLOW_SEED_ASSESSMENTS",
		apply:   func(cfg *Config, v any) { cfg.Seed.Assessments = v.(int) },
		extract: func(cfg Config) any { return cfg.Seed.Assessments },
	},
	{
		key: "seed.random_seed", typ: kInt, env: "TALENTFLOW_SEED_RANDOM_SEED",
		apply:   func(cfg *Config, v any) { cfg.Seed.RandomSeed = v.(int) },
		extract: func(cfg Config) any { return cfg.Seed.RandomSeed },
	},
	{
		key: "client.base_url", typ: kString, env: "TALENTFLOW_CLIENT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Client.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Client.BaseURL },
	},
	{
		key: "client.timeout", typ: kDuration, env: "TALENTFLOW_CLIENT_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Client.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Client.Timeout },
	},
	{
		key: "notes.author", typ: kString, env: "TALENTFLOW_NOTES_AUTHOR",
		apply:   func(cfg *Config, v any) { cfg.Notes.Author = v.(string) },
		extract: func(cfg Config) any { return cfg.Notes.Author },
	},
}

// parse converts a raw string to the Go type apply expects.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		return strconv.Atoi(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse %s from config key %s=%q: %v. Using default value.\n", s.typ, s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse %s from env var %s=%q: %v. Using default value.\n", s.typ, s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
