package env

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"

	"snakerl/internal/reward"
)

func TestTracePlayback(t *testing.T) {
	cfg := testConfig()
	cfg.Metric = reward.Euclidean
	g := NewGame(cfg, 77)
	trace := NewTrace(cfg, 77)
	rng := rand.New(rand.NewSource(3))
	for g.Alive {
		if _, err := trace.Step(g, Actions[rng.Intn(NumActions)]); err != nil {
			t.Fatal(err)
		}
	}
	if trace.FinalStats != g.Stats() || len(trace.Actions) != g.Tick {
		t.Fatalf("trace %+v with %d actions, game %+v", trace.FinalStats, len(trace.Actions), g.Stats())
	}

	replayed, err := trace.Playback()
	if err != nil {
		t.Fatal(err)
	}
	if replayed.Metric() != reward.Euclidean {
		t.Fatalf("metric=%v want euclidean", replayed.Metric())
	}
	if got := replayed.Stats(); got != trace.FinalStats {
		t.Fatalf("playback stats %+v want %+v", got, trace.FinalStats)
	}
}

func TestTraceSkipsRejectedActions(t *testing.T) {
	g := NewGame(testConfig(), 5)
	trace := NewTrace(testConfig(), 5)

	var simErr *SimulationError
	if _, err := trace.Step(g, Action(7)); !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if len(trace.Actions) != 0 {
		t.Fatalf("recorded %v", trace.Actions)
	}
}
