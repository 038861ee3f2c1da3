package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"snakerl/internal/policy"
	"snakerl/internal/reward"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
seed: 7
env:
  width: 12
  height: 8
  stall_factor: -1
reward:
  metric: euclidean
exploration:
  schedule: linear
  start: 0.5
  floor: 0.05
  decay: 0.01
tabular:
  workers: 2
  profiles:
    - learning_rate: 0.2
    - discount: 0.5
      exploration:
        decay: 0.02
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 || cfg.Tabular.EpisodesPerWorker != 1000 || cfg.Approximate.Warmup != 1000 {
		t.Fatalf("unexpected values: %+v", cfg)
	}

	game, err := cfg.Game()
	if err != nil {
		t.Fatal(err)
	}
	if game.Width != 12 || game.Height != 8 || game.StartLength != 3 || game.StallFactor != 0 || game.Metric != reward.Euclidean {
		t.Fatalf("Game()=%+v", game)
	}

	p0, p1, p2 := cfg.WorkerProfile(0), cfg.WorkerProfile(1), cfg.WorkerProfile(2)
	if p0.LearningRate != 0.2 || p0.Discount != 0.9 {
		t.Fatalf("profile 0: %+v", p0)
	}
	if p1.LearningRate != 0.1 || p1.Discount != 0.5 || p1.Exploration.Decay != 0.02 || p1.Exploration.Start != 0.5 {
		t.Fatalf("profile 1: %+v", p1)
	}
	if p2 != p0 {
		t.Fatalf("profiles do not cycle: %+v vs %+v", p2, p0)
	}

	s, err := p1.Exploration.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(policy.LinearDecay); !ok {
		t.Fatalf("schedule %T", s)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
	if _, err := Load(writeConfig(t, "env: [1, 2")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"env.width", func(c *Config) { c.Env.Width = 1 }},
		{"env.start_length", func(c *Config) { c.Env.StartLength = 15 }},
		{"reward.metric", func(c *Config) { c.Reward.Metric = "chebyshev" }},
		{"exploration", func(c *Config) { c.Exploration.Start = 2 }},
		{"tabular.workers", func(c *Config) { c.Tabular.Workers = -1 }},
		{"tabular.learning_rate", func(c *Config) { c.Tabular.LearningRate = 3 }},
		{"tabular.profiles[0].discount", func(c *Config) { c.Tabular.Profiles = []Profile{{Discount: 1.5}} }},
		{"approximate.optimizer", func(c *Config) { c.Approximate.Optimizer = "lbfgs" }},
		{"approximate.batch_size", func(c *Config) { c.Approximate.BatchSize = c.Approximate.BufferCapacity + 1 }},
		{"approximate.warmup", func(c *Config) { c.Approximate.Warmup = 10 }},
		{"approximate.max_anomalies", func(c *Config) { c.Approximate.MaxAnomalies = -2 }},
		{"eval.seeds", func(c *Config) { c.Eval.Seeds = nil }},
		{"logging.level", func(c *Config) { c.Logging.Level = "loud" }},
		{"logging.format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}
