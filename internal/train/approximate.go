package train

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/exp/rand"

	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/expreplay"
	"snakerl/internal/nn"
	"snakerl/internal/policy"
)

// errDiverged ends a run after too many consecutive numeric anomalies
var errDiverged = errors.New("train: network diverged")

// Approximate trains a neural network Q-function with experience replay
type Approximate struct {
	cfg  *config.Config
	game env.Config
	opts options
}

// NewApproximate validates cfg and prepares a trainer
func NewApproximate(cfg *config.Config, opts ...Option) (*Approximate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	game, err := cfg.Game()
	if err != nil {
		return nil, err
	}
	return &Approximate{cfg: cfg, game: game, opts: buildOptions(opts)}, nil
}

// learner owns the networks and the optimizer state
type learner struct {
	online *policy.Network
	target *policy.Network
	opt    nn.Optimizer
	gamma  float64

	sync         int
	steps        int
	anomalies    int
	maxAnomalies int
	logger       *slog.Logger
}

// step takes one gradient step on batch. A numeric anomaly leaves the
// weights alone and only becomes an error once it repeats maxAnomalies
// times in a row.
func (l *learner) step(batch []env.Transition) error {
	obs := make([]env.Observation, len(batch))
	actions := make([]int, len(batch))
	targets := make([]float64, len(batch))
	for i, tr := range batch {
		obs[i] = tr.Obs
		actions[i] = int(tr.Action)
		y := tr.Reward
		if !tr.Terminal {
			y += l.gamma * maxQ(l.target.QValues(tr.Next))
		}
		targets[i] = y
	}

	loss, err := l.online.MLP.Fit(policy.Inputs(obs), actions, targets, l.opt)
	if errors.Is(err, nn.ErrNumericAnomaly) {
		l.anomalies++
		l.logger.Warn("numeric anomaly, skipping update",
			"consecutive", l.anomalies, "limit", l.maxAnomalies, "loss", loss)
		if l.anomalies >= l.maxAnomalies {
			return errDiverged
		}
		return nil
	}
	if err != nil {
		return err
	}

	l.anomalies = 0
	l.steps++
	if l.sync > 0 && l.steps%l.sync == 0 {
		l.target.MLP.CopyFrom(l.online.MLP)
	}
	return nil
}

// Run trains until the target score, the episode budget, cancellation of
// ctx, or divergence. Divergence is reported through Result.Status and
// leaves Result.Artifact nil. Otherwise Result.Artifact always holds the
// weights of the best episode.
func (a *Approximate) Run(ctx context.Context) (*Result, error) {
	c := a.cfg.Approximate
	seed := a.cfg.Seed

	schedule, err := a.cfg.Exploration.Build()
	if err != nil {
		return nil, err
	}
	opt, err := nn.NewOptimizer(c.Optimizer, c.LearningRate)
	if err != nil {
		return nil, err
	}
	buf, err := expreplay.New(c.BufferCapacity, seed)
	if err != nil {
		return nil, err
	}
	selector, err := policy.NewSelector(schedule.Epsilon(0), selectorSeed(seed))
	if err != nil {
		return nil, err
	}

	online := a.opts.network
	if online == nil {
		online = policy.NewNetwork(c.Hidden)
		online.MLP.Init(rand.New(rand.NewSource(seed)))
	}
	l := &learner{
		online:       online,
		target:       online,
		opt:          opt,
		gamma:        c.Discount,
		sync:         c.TargetSync,
		maxAnomalies: c.MaxAnomalies,
		logger:       a.opts.logger,
	}
	if c.TargetSync > 0 {
		l.target = online.Clone()
	}

	var gameOpts []env.GameOption
	if a.opts.render != nil {
		gameOpts = append(gameOpts, env.WithRenderer(a.opts.render))
	}
	game := env.NewGame(a.game, seed, gameOpts...)
	run := NewRun()
	res := &Result{Status: BudgetExhausted, BestScore: -1, Worker: -1}

	diverged := func() (*Result, error) {
		a.opts.logger.Error("training diverged",
			"episode", run.Episode, "anomalies", l.anomalies, "best_score", run.BestScore)
		res.Status = FatalDivergence
		res.Artifact = nil
		res.BestScore = run.BestScore
		res.Episodes = run.Episode
		return res, nil
	}

	for ep := 0; ep < c.Episodes; ep++ {
		if ctx.Err() != nil {
			break
		}
		run.Epsilon = schedule.Epsilon(ep)
		if err := selector.SetEpsilon(run.Epsilon); err != nil {
			return nil, err
		}

		obs := game.Reset()
		for {
			action := selector.Select(online, obs)
			sr, err := game.Step(action)
			if err != nil {
				return nil, err
			}
			tr := env.Transition{
				Obs:      obs,
				Action:   action,
				Reward:   sr.Reward,
				Next:     sr.Obs,
				Terminal: sr.Terminal,
			}
			buf.Add(tr)

			// Learn from the fresh transition, then from replay
			if err := l.step([]env.Transition{tr}); err != nil {
				if errors.Is(err, errDiverged) {
					return diverged()
				}
				return nil, err
			}
			if buf.Len() >= c.Warmup {
				batch, err := buf.Sample(c.BatchSize)
				if err != nil {
					return nil, err
				}
				if err := l.step(batch); err != nil {
					if errors.Is(err, errDiverged) {
						return diverged()
					}
					return nil, err
				}
			}

			obs = sr.Obs
			if sr.Terminal {
				break
			}
		}

		stats := game.Stats()
		improved := run.Finish(stats.Score)
		a.opts.record(EpisodeRecord{
			Trainer:   "approximate",
			Episode:   ep,
			Epsilon:   run.Epsilon,
			BestScore: run.BestScore,
			Stats:     stats,
		})

		// Fit restores the weights on an anomaly, so online always holds the
		// last valid parameters
		if improved {
			res.Artifact = policy.NetworkArtifact(online, stats.Score, ep)
			a.opts.logger.Info("new best score", "score", stats.Score, "episode", ep, "epsilon", run.Epsilon)
			if a.opts.onImprove != nil {
				a.opts.onImprove(res.Artifact)
			}
		}

		if stats.Score >= c.TargetScore {
			res.Status = TargetReached
			break
		}
	}

	res.BestScore = run.BestScore
	res.Episodes = run.Episode
	a.opts.logger.Info("training finished",
		"status", res.Status.String(), "best_score", res.BestScore, "episodes", res.Episodes)
	return res, nil
}

func maxQ(q [env.NumActions]float64) float64 {
	m := q[0]
	for _, v := range q[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
