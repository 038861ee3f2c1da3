package config

import (
	"errors"
	"fmt"

	"snakerl/internal/nn"
	"snakerl/internal/reward"
)

// ErrInvalid matches every ValidationError
var ErrInvalid = errors.New("invalid configuration")

// ValidationError reports one rejected configuration field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate checks every section and returns all problems found, joined
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
		}
	}

	e := c.Env
	check(e.Width >= 2, "env.width", "must be at least 2, got %d", e.Width)
	check(e.Height >= 1, "env.height", "must be at least 1, got %d", e.Height)
	check(e.StartLength >= 1 && e.StartLength <= e.Width/2+1, "env.start_length",
		"must be in [1, %d] for width %d, got %d", e.Width/2+1, e.Width, e.StartLength)

	if _, err := reward.ParseMetric(c.Reward.Metric); err != nil {
		check(false, "reward.metric", "%v", err)
	}
	if _, err := c.Exploration.Build(); err != nil {
		check(false, "exploration", "%v", err)
	}

	t := c.Tabular
	check(t.Workers >= 1, "tabular.workers", "must be positive, got %d", t.Workers)
	check(t.EpisodesPerWorker >= 1, "tabular.episodes_per_worker", "must be positive, got %d", t.EpisodesPerWorker)
	check(t.TargetScore >= 1, "tabular.target_score", "must be positive, got %d", t.TargetScore)
	for i := 0; i < max(1, len(t.Profiles)); i++ {
		p := c.WorkerProfile(i)
		field := "tabular"
		if len(t.Profiles) > 0 {
			field = fmt.Sprintf("tabular.profiles[%d]", i)
		}
		check(p.LearningRate > 0 && p.LearningRate <= 1, field+".learning_rate", "must be in (0, 1], got %v", p.LearningRate)
		check(p.Discount >= 0 && p.Discount <= 1, field+".discount", "must be in [0, 1], got %v", p.Discount)
		if _, err := p.Exploration.Build(); err != nil {
			check(false, field+".exploration", "%v", err)
		}
	}

	a := c.Approximate
	check(a.Episodes >= 1, "approximate.episodes", "must be positive, got %d", a.Episodes)
	check(a.TargetScore >= 1, "approximate.target_score", "must be positive, got %d", a.TargetScore)
	check(a.Hidden >= 1, "approximate.hidden", "must be positive, got %d", a.Hidden)
	check(a.LearningRate > 0, "approximate.learning_rate", "must be positive, got %v", a.LearningRate)
	check(a.Discount >= 0 && a.Discount <= 1, "approximate.discount", "must be in [0, 1], got %v", a.Discount)
	if _, err := nn.NewOptimizer(a.Optimizer, a.LearningRate); err != nil {
		check(false, "approximate.optimizer", "%v", err)
	}
	check(a.BufferCapacity >= 1, "approximate.buffer_capacity", "must be positive, got %d", a.BufferCapacity)
	check(a.BatchSize >= 1 && a.BatchSize <= a.BufferCapacity, "approximate.batch_size",
		"must be in [1, buffer_capacity], got %d", a.BatchSize)
	check(a.Warmup >= a.BatchSize && a.Warmup <= a.BufferCapacity, "approximate.warmup",
		"must be in [batch_size, buffer_capacity], got %d", a.Warmup)
	check(a.TargetSync >= 0, "approximate.target_sync", "must not be negative, got %d", a.TargetSync)
	check(a.MaxAnomalies >= 1, "approximate.max_anomalies", "must be positive, got %d", a.MaxAnomalies)

	check(len(c.Eval.Seeds) > 0, "eval.seeds", "must not be empty")
	check(c.Eval.Workers >= 0, "eval.workers", "must not be negative, got %d", c.Eval.Workers)

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		check(false, "logging.format", "unknown format %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}
