package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snakerl/internal/config"
	"snakerl/internal/eval"
	"snakerl/internal/logging"
	"snakerl/internal/policy"
	"snakerl/internal/train"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitDiverged = 2
)

type trainer interface {
	Run(ctx context.Context) (*train.Result, error)
}

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "configs/snake.yaml", "path to config file")
	algo := flag.String("algo", "tabular", "trainer to run: tabular|approximate")
	outPath := flag.String("out", "artifacts/policy.json", "where to write the trained policy")
	tracePath := flag.String("trace", "", "if set, save a greedy episode trace on the first benchmark seed")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config %s:\n%v\n", *configPath, err)
		return exitError
	}

	logger, err := logging.NewSlog(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return exitError
	}

	sink, err := logging.NewLogger(cfg.Logging.CSVPath, cfg.Logging.JSONPath, cfg.Logging.ParquetPath)
	if err != nil {
		logger.Error("failed to open episode logs", "err", err)
		return exitError
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close episode logs", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []train.Option{train.WithLogger(logger), train.WithRecorder(sink)}
	var t trainer
	switch *algo {
	case "tabular":
		t, err = train.NewTabular(cfg, opts...)
	case "approximate":
		// Keep the latest improvement on disk in case the run is interrupted
		opts = append(opts, train.OnImprove(func(a *policy.Artifact) {
			if err := logging.SaveArtifact(*outPath, a); err != nil {
				logger.Warn("failed to save artifact", "path", *outPath, "err", err)
			}
		}))
		t, err = train.NewApproximate(cfg, opts...)
	default:
		err = fmt.Errorf("unknown algorithm %q", *algo)
	}
	if err != nil {
		logger.Error("failed to create trainer", "err", err)
		return exitError
	}

	logger.Info("training started", "algo", *algo, "config", *configPath, "seed", cfg.Seed)
	startTime := time.Now()

	res, err := t.Run(ctx)
	if err != nil {
		logger.Error("training failed", "err", err)
		return exitError
	}

	elapsed := time.Since(startTime)
	fmt.Println("---")
	fmt.Printf("Training complete: %s after %d episodes in %v\n", res.Status, res.Episodes, elapsed.Round(time.Millisecond))
	fmt.Printf("Best score: %d\n", res.BestScore)

	if res.Status == train.FatalDivergence {
		return exitDiverged
	}
	if !res.Usable() {
		logger.Warn("no policy produced")
		return exitOK
	}

	if err := logging.SaveArtifact(*outPath, res.Artifact); err != nil {
		logger.Error("failed to save artifact", "path", *outPath, "err", err)
		return exitError
	}
	fmt.Printf("Policy saved to %s\n", *outPath)

	if err := benchmark(ctx, cfg, res.Artifact, *tracePath, logger); err != nil {
		logger.Error("benchmark failed", "err", err)
		return exitError
	}
	return exitOK
}

// benchmark plays the trained policy greedily on the configured seeds
func benchmark(ctx context.Context, cfg *config.Config, a *policy.Artifact, tracePath string, logger *slog.Logger) error {
	v, err := a.Policy()
	if err != nil {
		return err
	}
	game, err := cfg.Game()
	if err != nil {
		return err
	}

	evaluator := eval.NewEvaluator(game, cfg.Eval.Workers)
	_, agg, err := evaluator.Benchmark(ctx, v, cfg.Eval.Seeds)
	if err != nil {
		return err
	}
	logging.LogBenchmark(logger, agg)
	fmt.Printf("Benchmark over %d seeds: mean score %.2f, max %d\n", agg.NumEpisodes, agg.ScoreMean, agg.ScoreMax)

	if tracePath != "" {
		trace, _, err := evaluator.EpisodeWithTrace(v, cfg.Eval.Seeds[0])
		if err != nil {
			return err
		}
		if err := logging.SaveTrace(tracePath, trace); err != nil {
			return err
		}
		logger.Info("trace saved", "path", tracePath, "seed", cfg.Eval.Seeds[0])
	}
	return nil
}
