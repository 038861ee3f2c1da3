package eval

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"snakerl/internal/env"
	"snakerl/internal/policy"
)

// stepsPerCell bounds a rollout when the stall limit is disabled
const stepsPerCell = 100

// Evaluator runs greedy episodes of a trained policy
type Evaluator struct {
	game    env.Config
	workers int
}

// NewEvaluator creates a new evaluator. Zero workers means one per CPU.
func NewEvaluator(game env.Config, workers int) *Evaluator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Evaluator{game: game, workers: workers}
}

// Episode runs a single greedy episode on a fresh game seeded with seed
func (e *Evaluator) Episode(v policy.ActionValuer, seed uint64, opts ...env.GameOption) (env.EpisodeStats, error) {
	game := env.NewGame(e.game, seed, opts...)
	return e.rollout(v, game, game.Step)
}

// EpisodeWithTrace runs an episode and records actions for playback
func (e *Evaluator) EpisodeWithTrace(v policy.ActionValuer, seed uint64, opts ...env.GameOption) (*env.Trace, env.EpisodeStats, error) {
	game := env.NewGame(e.game, seed, opts...)
	trace := env.NewTrace(e.game, seed)
	stats, err := e.rollout(v, game, func(a env.Action) (env.StepResult, error) {
		return trace.Step(game, a)
	})
	if err != nil {
		return nil, stats, err
	}
	return trace, stats, nil
}

func (e *Evaluator) rollout(v policy.ActionValuer, game *env.Game, step func(env.Action) (env.StepResult, error)) (env.EpisodeStats, error) {
	limit := stepsPerCell * e.game.Width * e.game.Height
	for game.Alive && game.Tick < limit {
		if _, err := step(policy.Greedy(v, env.Encode(game))); err != nil {
			return game.Stats(), err
		}
	}
	return game.Stats(), nil
}

// Benchmark evaluates v on every seed in parallel. Per-seed results keep
// the order of seeds.
func (e *Evaluator) Benchmark(ctx context.Context, v policy.ActionValuer, seeds []uint64) ([]env.EpisodeStats, env.AggregatedStats, error) {
	episodes := make([]env.EpisodeStats, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats, err := e.Episode(v, seed)
			if err != nil {
				return err
			}
			episodes[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, env.AggregatedStats{}, err
	}
	return episodes, env.Aggregate(episodes), nil
}
