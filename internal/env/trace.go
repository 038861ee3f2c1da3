package env

import (
	"fmt"

	"snakerl/internal/reward"
)

// Trace is a seed plus the actions taken on it. Stepping a game through
// a trace keeps FinalStats current, so a trace can be replayed and
// checked against the episode it came from.
type Trace struct {
	Seed       uint64       `json:"seed"`
	Actions    []Action     `json:"actions"`
	FinalStats EpisodeStats `json:"final_stats"`
	Config     TraceConfig  `json:"config"`
}

// TraceConfig is the environment a trace was recorded in
type TraceConfig struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	StartLength int    `json:"start_length"`
	StallFactor int    `json:"stall_factor"`
	Metric      string `json:"metric"`
}

// NewTrace starts an empty trace for a game built from cfg and seed
func NewTrace(cfg Config, seed uint64) *Trace {
	return &Trace{
		Seed: seed,
		Config: TraceConfig{
			Width:       cfg.Width,
			Height:      cfg.Height,
			StartLength: cfg.StartLength,
			StallFactor: cfg.StallFactor,
			Metric:      cfg.Metric.String(),
		},
	}
}

// Step applies a to g and appends it to the trace. Rejected actions are
// not recorded.
func (t *Trace) Step(g *Game, a Action) (StepResult, error) {
	res, err := g.Step(a)
	if err != nil {
		return res, err
	}
	t.Actions = append(t.Actions, a)
	t.FinalStats = g.Stats()
	return res, nil
}

// GameConfig rebuilds the environment configuration
func (t *Trace) GameConfig() (Config, error) {
	metric, err := reward.ParseMetric(t.Config.Metric)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Width:       t.Config.Width,
		Height:      t.Config.Height,
		StartLength: t.Config.StartLength,
		StallFactor: t.Config.StallFactor,
		Metric:      metric,
	}, nil
}

// Playback recreates the game and replays every recorded action
func (t *Trace) Playback(opts ...GameOption) (*Game, error) {
	cfg, err := t.GameConfig()
	if err != nil {
		return nil, err
	}
	g := NewGame(cfg, t.Seed, opts...)
	for i, a := range t.Actions {
		if _, err := g.Step(a); err != nil {
			return g, fmt.Errorf("playback step %d: %w", i, err)
		}
	}
	return g, nil
}
