package train

import (
	"context"
	"fmt"

	"snakerl/internal/env"
	"snakerl/internal/policy"
)

// report is the single message a worker sends to the coordinator
type report struct {
	worker   int
	reached  bool
	score    int
	episode  int
	episodes int
	table    *policy.QTable
	err      error
}

// runWorker always sends exactly one report, even when the worker panics
func (t *Tabular) runWorker(ctx context.Context, id int, out chan<- report) {
	var rep report
	defer func() {
		if r := recover(); r != nil {
			rep = report{worker: id, err: &WorkerFailure{Worker: id, Err: fmt.Errorf("panic: %v", r)}}
		}
		out <- rep
	}()
	rep = t.work(ctx, id)
}

func (t *Tabular) work(ctx context.Context, id int) report {
	fail := func(err error) report {
		return report{worker: id, err: &WorkerFailure{Worker: id, Err: err}}
	}

	profile := t.cfg.WorkerProfile(id)
	schedule, err := profile.Exploration.Build()
	if err != nil {
		return fail(err)
	}

	seed := t.cfg.Seed + uint64(id)
	var gameOpts []env.GameOption
	if id == 0 && t.opts.render != nil {
		gameOpts = append(gameOpts, env.WithRenderer(t.opts.render))
	}
	game := env.NewGame(t.game, seed, gameOpts...)
	selector, err := policy.NewSelector(schedule.Epsilon(0), selectorSeed(seed))
	if err != nil {
		return fail(err)
	}
	table := policy.NewQTable()
	run := NewRun()
	best := report{worker: id, score: -1, episode: -1}

	t.opts.logger.Debug("worker started", "worker", id, "seed", seed,
		"learning_rate", profile.LearningRate, "discount", profile.Discount)

	for ep := 0; ep < t.cfg.Tabular.EpisodesPerWorker; ep++ {
		if ctx.Err() != nil {
			break
		}
		run.Epsilon = schedule.Epsilon(ep)
		if err := selector.SetEpsilon(run.Epsilon); err != nil {
			return fail(err)
		}

		obs := game.Reset()
		for {
			action := selector.Select(table, obs)
			res, err := game.Step(action)
			if err != nil {
				return fail(err)
			}
			table.Update(env.Transition{
				Obs:      obs,
				Action:   action,
				Reward:   res.Reward,
				Next:     res.Obs,
				Terminal: res.Terminal,
			}, profile.LearningRate, profile.Discount)
			obs = res.Obs
			if res.Terminal {
				break
			}
		}

		stats := game.Stats()
		improved := run.Finish(stats.Score)
		t.opts.record(EpisodeRecord{
			Trainer:   "tabular",
			Worker:    id,
			Episode:   ep,
			Epsilon:   run.Epsilon,
			BestScore: run.BestScore,
			Stats:     stats,
		})

		if stats.Score >= t.cfg.Tabular.TargetScore {
			return report{
				worker:   id,
				reached:  true,
				score:    stats.Score,
				episode:  ep,
				episodes: run.Episode,
				table:    table.Clone(),
			}
		}
		if improved {
			best.score = stats.Score
			best.episode = ep
			best.table = table.Clone()
		}
	}

	best.episodes = run.Episode
	return best
}
