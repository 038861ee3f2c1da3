package train

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/policy"
)

// Tabular trains independent Q-tables in parallel workers and keeps the
// first one to reach the target score, or the best one seen otherwise
type Tabular struct {
	cfg  *config.Config
	game env.Config
	opts options
}

// NewTabular validates cfg and prepares a trainer
func NewTabular(cfg *config.Config, opts ...Option) (*Tabular, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	game, err := cfg.Game()
	if err != nil {
		return nil, err
	}
	return &Tabular{cfg: cfg, game: game, opts: buildOptions(opts)}, nil
}

// Run starts every worker and waits for all of them. Cancelling ctx stops
// the workers between episodes and the best table so far is returned.
// Once a worker reaches the target the others are cancelled the same way;
// the episodes they finished before noticing still count towards
// Result.Episodes.
func (t *Tabular) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := t.cfg.Tabular.Workers
	reports := make(chan report, n)
	for id := 0; id < n; id++ {
		go t.runWorker(ctx, id, reports)
	}

	var (
		winner     *report
		candidates []report
		failures   []error
		episodes   int
	)
	for i := 0; i < n; i++ {
		rep := <-reports
		if rep.err != nil {
			t.opts.logger.Warn("worker failed", "worker", rep.worker, "err", rep.err)
			failures = append(failures, rep.err)
			continue
		}
		episodes += rep.episodes
		if rep.reached && winner == nil {
			t.opts.logger.Info("target reached",
				"worker", rep.worker, "score", rep.score, "episode", rep.episode)
			winner = &rep
			cancel()
			continue
		}
		if rep.table != nil {
			candidates = append(candidates, rep)
		}
	}

	if len(failures) == n {
		return nil, fmt.Errorf("%w: %w", ErrAllWorkersFailed, errors.Join(failures...))
	}

	res := &Result{Status: BudgetExhausted, BestScore: -1, Episodes: episodes, Worker: -1}
	if winner != nil {
		res.Status = TargetReached
		res.fill(winner)
		return res, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return outranks(candidates[i], candidates[j])
	})
	if len(candidates) > 0 {
		res.fill(&candidates[0])
	}
	t.opts.logger.Info("budget exhausted", "best_score", res.BestScore, "worker", res.Worker, "episodes", episodes)
	return res, nil
}

// outranks orders budget-exhausted reports: highest score, then earliest
// episode, then lowest worker id
func outranks(a, b report) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.episode != b.episode {
		return a.episode < b.episode
	}
	return a.worker < b.worker
}

func (r *Result) fill(rep *report) {
	r.BestScore = rep.score
	r.Worker = rep.worker
	r.Artifact = policy.TabularArtifact(rep.table, rep.score, rep.episode)
}
