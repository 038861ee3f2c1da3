package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"snakerl/internal/env"
	"snakerl/internal/policy"
	"snakerl/internal/reward"
)

// Config is the root configuration structure
type Config struct {
	Seed        uint64            `yaml:"seed"`
	Env         EnvConfig         `yaml:"env"`
	Reward      RewardConfig      `yaml:"reward"`
	Exploration ExplorationConfig `yaml:"exploration"`
	Tabular     TabularConfig     `yaml:"tabular"`
	Approximate ApproximateConfig `yaml:"approximate"`
	Eval        EvalConfig        `yaml:"eval"`
	Logging     LogConfig         `yaml:"logging"`
}

// EnvConfig defines environment parameters
type EnvConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	StartLength int `yaml:"start_length"`
	StallFactor int `yaml:"stall_factor"` // negative disables the stall limit
}

// RewardConfig selects the shaping metric
type RewardConfig struct {
	Metric string `yaml:"metric"` // manhattan|euclidean
}

// ExplorationConfig defines the epsilon schedule
type ExplorationConfig struct {
	Schedule string  `yaml:"schedule"` // linear|exponential
	Start    float64 `yaml:"start"`
	Floor    float64 `yaml:"floor"`
	Decay    float64 `yaml:"decay"`
}

// Profile overrides the tabular hyperparameters for a subset of workers.
// Zero fields fall back to the tabular section.
type Profile struct {
	LearningRate float64           `yaml:"learning_rate"`
	Discount     float64           `yaml:"discount"`
	Exploration  ExplorationConfig `yaml:"exploration"`
}

// TabularConfig defines the parallel Q-table trainer
type TabularConfig struct {
	Workers           int       `yaml:"workers"`
	EpisodesPerWorker int       `yaml:"episodes_per_worker"`
	TargetScore       int       `yaml:"target_score"`
	LearningRate      float64   `yaml:"learning_rate"`
	Discount          float64   `yaml:"discount"`
	Profiles          []Profile `yaml:"profiles"` // worker i uses profile i mod len
}

// ApproximateConfig defines the neural network trainer
type ApproximateConfig struct {
	Episodes       int     `yaml:"episodes"`
	TargetScore    int     `yaml:"target_score"`
	Hidden         int     `yaml:"hidden"`
	LearningRate   float64 `yaml:"learning_rate"`
	Discount       float64 `yaml:"discount"`
	Optimizer      string  `yaml:"optimizer"` // adam|sgd
	BufferCapacity int     `yaml:"buffer_capacity"`
	BatchSize      int     `yaml:"batch_size"`
	Warmup         int     `yaml:"warmup"`
	TargetSync     int     `yaml:"target_sync"` // 0 bootstraps from the online network
	MaxAnomalies   int     `yaml:"max_anomalies"`
}

// EvalConfig defines the greedy benchmark
type EvalConfig struct {
	Seeds   []uint64 `yaml:"seeds"`
	Workers int      `yaml:"workers"`
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level       string `yaml:"level"`  // debug|info|warn|error
	Format      string `yaml:"format"` // text|json
	CSVPath     string `yaml:"csv_path"`
	JSONPath    string `yaml:"json_path"`
	ParquetPath string `yaml:"parquet_path"`
}

// Load reads a YAML config file and returns a Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Env.Width == 0 {
		cfg.Env.Width = 20
	}
	if cfg.Env.Height == 0 {
		cfg.Env.Height = 20
	}
	if cfg.Env.StartLength == 0 {
		cfg.Env.StartLength = 3
	}
	if cfg.Env.StallFactor == 0 {
		cfg.Env.StallFactor = 100
	}
	if cfg.Reward.Metric == "" {
		cfg.Reward.Metric = "manhattan"
	}
	if cfg.Exploration.Schedule == "" {
		cfg.Exploration.Schedule = "exponential"
	}
	if cfg.Exploration.Start == 0 {
		cfg.Exploration.Start = 1.0
	}
	if cfg.Exploration.Floor == 0 {
		cfg.Exploration.Floor = 0.01
	}
	if cfg.Exploration.Decay == 0 {
		cfg.Exploration.Decay = 0.995
	}
	if cfg.Tabular.Workers == 0 {
		cfg.Tabular.Workers = 4
	}
	if cfg.Tabular.EpisodesPerWorker == 0 {
		cfg.Tabular.EpisodesPerWorker = 1000
	}
	if cfg.Tabular.TargetScore == 0 {
		cfg.Tabular.TargetScore = 30
	}
	if cfg.Tabular.LearningRate == 0 {
		cfg.Tabular.LearningRate = 0.1
	}
	if cfg.Tabular.Discount == 0 {
		cfg.Tabular.Discount = 0.9
	}
	if cfg.Approximate.Episodes == 0 {
		cfg.Approximate.Episodes = 500
	}
	if cfg.Approximate.TargetScore == 0 {
		cfg.Approximate.TargetScore = 30
	}
	if cfg.Approximate.Hidden == 0 {
		cfg.Approximate.Hidden = 128
	}
	if cfg.Approximate.LearningRate == 0 {
		cfg.Approximate.LearningRate = 0.001
	}
	if cfg.Approximate.Discount == 0 {
		cfg.Approximate.Discount = 0.9
	}
	if cfg.Approximate.Optimizer == "" {
		cfg.Approximate.Optimizer = "adam"
	}
	if cfg.Approximate.BufferCapacity == 0 {
		cfg.Approximate.BufferCapacity = 100_000
	}
	if cfg.Approximate.BatchSize == 0 {
		cfg.Approximate.BatchSize = 1000
	}
	if cfg.Approximate.Warmup == 0 {
		cfg.Approximate.Warmup = cfg.Approximate.BatchSize
	}
	if cfg.Approximate.MaxAnomalies == 0 {
		cfg.Approximate.MaxAnomalies = 3
	}
	if len(cfg.Eval.Seeds) == 0 {
		cfg.Eval.Seeds = []uint64{2000, 2001, 2002, 2003, 2004, 2005, 2006, 2007, 2008, 2009}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Game returns the environment configuration
func (c *Config) Game() (env.Config, error) {
	metric, err := reward.ParseMetric(c.Reward.Metric)
	if err != nil {
		return env.Config{}, &ValidationError{Field: "reward.metric", Reason: err.Error()}
	}
	stall := c.Env.StallFactor
	if stall < 0 {
		stall = 0
	}
	return env.Config{
		Width:       c.Env.Width,
		Height:      c.Env.Height,
		StartLength: c.Env.StartLength,
		StallFactor: stall,
		Metric:      metric,
	}, nil
}

// Build turns the section into an epsilon schedule
func (e ExplorationConfig) Build() (policy.Schedule, error) {
	return policy.NewSchedule(e.Schedule, e.Start, e.Floor, e.Decay)
}

// WorkerProfile resolves the hyperparameters tabular worker id trains with
func (c *Config) WorkerProfile(id int) Profile {
	p := Profile{
		LearningRate: c.Tabular.LearningRate,
		Discount:     c.Tabular.Discount,
		Exploration:  c.Exploration,
	}
	if len(c.Tabular.Profiles) == 0 {
		return p
	}
	o := c.Tabular.Profiles[id%len(c.Tabular.Profiles)]
	if o.LearningRate != 0 {
		p.LearningRate = o.LearningRate
	}
	if o.Discount != 0 {
		p.Discount = o.Discount
	}
	if o.Exploration.Schedule != "" {
		p.Exploration.Schedule = o.Exploration.Schedule
	}
	if o.Exploration.Start != 0 {
		p.Exploration.Start = o.Exploration.Start
	}
	if o.Exploration.Floor != 0 {
		p.Exploration.Floor = o.Exploration.Floor
	}
	if o.Exploration.Decay != 0 {
		p.Exploration.Decay = o.Exploration.Decay
	}
	return p
}
