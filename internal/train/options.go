package train

import (
	"io"
	"log/slog"

	"snakerl/internal/env"
	"snakerl/internal/policy"
)

// EpisodeRecord describes one finished training episode
type EpisodeRecord struct {
	Trainer   string // "tabular" or "approximate"
	Worker    int
	Episode   int
	Epsilon   float64
	BestScore int
	Stats     env.EpisodeStats
}

// Recorder receives every finished training episode. Tabular workers call
// it concurrently.
type Recorder interface {
	RecordEpisode(rec EpisodeRecord) error
}

// Option customises a trainer
type Option func(*options)

type options struct {
	logger    *slog.Logger
	recorder  Recorder
	render    env.RenderFunc
	network   *policy.Network
	onImprove func(*policy.Artifact)
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder sends every finished episode to r
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithRenderer attaches a render callback. The tabular trainer only
// renders worker 0.
func WithRenderer(fn env.RenderFunc) Option {
	return func(o *options) {
		o.render = fn
	}
}

// WithNetwork makes the approximate trainer start from n instead of a
// freshly initialised network
func WithNetwork(n *policy.Network) Option {
	return func(o *options) {
		o.network = n
	}
}

// OnImprove is called with a new artifact whenever the approximate
// trainer beats its best score
func OnImprove(fn func(*policy.Artifact)) Option {
	return func(o *options) {
		o.onImprove = fn
	}
}

func (o *options) record(rec EpisodeRecord) {
	o.logger.Debug("episode finished",
		"trainer", rec.Trainer,
		"worker", rec.Worker,
		"episode", rec.Episode,
		"score", rec.Stats.Score,
		"steps", rec.Stats.Steps,
		"epsilon", rec.Epsilon,
		"death", rec.Stats.Death.String(),
	)
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordEpisode(rec); err != nil {
		o.logger.Warn("failed to record episode", "trainer", rec.Trainer, "worker", rec.Worker, "err", err)
	}
}

// selectorSeed derives the exploration stream from the environment seed
// so the two never share a sequence
func selectorSeed(seed uint64) uint64 {
	return seed ^ 0x9e3779b97f4a7c15
}
