package env

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"

	"snakerl/internal/reward"
)

func testConfig() Config {
	return Config{Width: 10, Height: 10, StartLength: 3, StallFactor: 100}
}

func mustStep(t *testing.T, g *Game, a Action) StepResult {
	t.Helper()
	res, err := g.Step(a)
	if err != nil {
		t.Fatalf("step %v: %v", a, err)
	}
	return res
}

func TestResetInitialState(t *testing.T) {
	g := NewGame(testConfig(), 1)

	if len(g.Snake) != 3 {
		t.Fatalf("len(snake)=%d want 3", len(g.Snake))
	}
	want := []Point{{5, 5}, {4, 5}, {3, 5}}
	for i := range want {
		if g.Snake[i] != want[i] {
			t.Fatalf("snake[%d]=%v want %v", i, g.Snake[i], want[i])
		}
	}
	if g.Dir != DirRight || !g.Alive || g.Score != 0 {
		t.Fatalf("unexpected initial state dir=%v alive=%v score=%d", g.Dir, g.Alive, g.Score)
	}
	if g.occupied(g.Food) || !g.inBounds(g.Food) {
		t.Fatalf("food %v placed on body or off grid", g.Food)
	}
}

func TestStepEatsFoodStraightAhead(t *testing.T) {
	g := NewGame(testConfig(), 1)
	g.Food = Point{8, 5}

	for i := 0; i < 2; i++ {
		res := mustStep(t, g, ActionStraight)
		if res.Reward != reward.Closer || res.Terminal || res.AteFood {
			t.Fatalf("step %d: %+v", i, res)
		}
	}
	res := mustStep(t, g, ActionStraight)
	if !res.AteFood || res.Reward != reward.Food || res.Score != 1 || res.Terminal {
		t.Fatalf("expected food step, got %+v", res)
	}
	if len(g.Snake) != 4 {
		t.Fatalf("len(snake)=%d want 4", len(g.Snake))
	}
	if g.Head() != (Point{8, 5}) {
		t.Fatalf("head=%v want {8 5}", g.Head())
	}
	if g.occupied(g.Food) {
		t.Fatalf("food respawned on body at %v", g.Food)
	}
}

func TestStepMovingAwayFromFood(t *testing.T) {
	g := NewGame(testConfig(), 1)
	g.Food = Point{8, 5}

	res := mustStep(t, g, ActionLeft) // heading up, away on the x axis
	if res.Reward != reward.Farther {
		t.Fatalf("reward=%v want %v", res.Reward, reward.Farther)
	}
	if g.Dir != DirUp {
		t.Fatalf("dir=%v want up", g.Dir)
	}
}

func TestStepWallCollision(t *testing.T) {
	g := NewGame(testConfig(), 1)
	g.Snake = []Point{{9, 5}, {8, 5}, {7, 5}}
	g.Food = Point{0, 0}

	res := mustStep(t, g, ActionStraight)
	if !res.Terminal || res.Reward != reward.Collision {
		t.Fatalf("expected terminal collision, got %+v", res)
	}
	if g.DeathReason != DeathWall {
		t.Fatalf("death=%v want wall", g.DeathReason)
	}

	var simErr *SimulationError
	if _, err := g.Step(ActionStraight); !errors.As(err, &simErr) {
		t.Fatalf("step after terminal: expected SimulationError, got %v", err)
	}
}

func TestStepSelfCollision(t *testing.T) {
	tests := []struct {
		name  string
		snake []Point
		dir   Direction
		move  Action
	}{
		{
			name:  "coiled body",
			snake: []Point{{5, 5}, {4, 5}, {4, 6}, {5, 6}, {6, 6}},
			dir:   DirRight,
			move:  ActionRight,
		},
		{
			name:  "tail cell",
			snake: []Point{{5, 5}, {5, 6}, {4, 6}, {4, 5}},
			dir:   DirUp,
			move:  ActionLeft,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGame(testConfig(), 1)
			g.Snake = tt.snake
			g.Dir = tt.dir
			g.Food = Point{0, 0}

			if !g.IsDangerBody(tt.move) {
				t.Fatalf("danger probe missed body for %v", tt.move)
			}
			res := mustStep(t, g, tt.move)
			if !res.Terminal || g.DeathReason != DeathSelf || res.Reward != reward.Collision {
				t.Fatalf("expected self collision, got %+v death=%v", res, g.DeathReason)
			}
		})
	}
}

func TestStepInvalidAction(t *testing.T) {
	g := NewGame(testConfig(), 1)
	var simErr *SimulationError
	if _, err := g.Step(Action(7)); !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if g.Tick != 0 {
		t.Fatalf("invalid action advanced the game")
	}
}

func TestStallLimit(t *testing.T) {
	cfg := testConfig()
	cfg.StallFactor = 1
	g := NewGame(cfg, 1)
	g.Food = Point{0, 0}

	for i := 0; i < 3; i++ {
		if res := mustStep(t, g, ActionStraight); res.Terminal {
			t.Fatalf("terminated early at step %d", i)
		}
	}
	res := mustStep(t, g, ActionStraight)
	if !res.Terminal || g.DeathReason != DeathStall || res.Reward != reward.Collision {
		t.Fatalf("expected stall, got %+v death=%v", res, g.DeathReason)
	}
}

func TestDeterministicForSeed(t *testing.T) {
	run := func() []Snapshot {
		g := NewGame(testConfig(), 42)
		rng := rand.New(rand.NewSource(7))
		var frames []Snapshot
		for episode := 0; episode < 5; episode++ {
			g.Reset()
			for g.Alive {
				if _, err := g.Step(Actions[rng.Intn(NumActions)]); err != nil {
					t.Fatal(err)
				}
				frames = append(frames, g.Snapshot())
			}
		}
		return frames
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("frame counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Food != b[i].Food || a[i].Score != b[i].Score || a[i].Snake[0] != b[i].Snake[0] {
			t.Fatalf("frame %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFoodNeverOnBody(t *testing.T) {
	g := NewGame(Config{Width: 5, Height: 5, StartLength: 3, StallFactor: 20}, 3)
	rng := rand.New(rand.NewSource(11))
	for episode := 0; episode < 50; episode++ {
		g.Reset()
		for g.Alive {
			if _, err := g.Step(Actions[rng.Intn(NumActions)]); err != nil {
				t.Fatal(err)
			}
			if g.Alive && g.occupied(g.Food) {
				t.Fatalf("food %v on body %v", g.Food, g.Snake)
			}
		}
	}
}

func TestRenderCallbackIsDetached(t *testing.T) {
	var frames []Snapshot
	g := NewGame(testConfig(), 5, WithRenderer(func(s Snapshot) {
		s.Snake[0] = Point{-100, -100}
		frames = append(frames, s)
	}))
	g.Food = Point{0, 0}

	for i := 0; i < 3; i++ {
		mustStep(t, g, ActionStraight)
	}
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4 (reset + 3 steps)", len(frames))
	}
	if g.Head() != (Point{8, 5}) {
		t.Fatalf("renderer altered game state: head=%v", g.Head())
	}
}

func TestMetricFixedForGame(t *testing.T) {
	cfg := testConfig()
	cfg.Metric = reward.Euclidean
	g := NewGame(cfg, 9)
	rng := rand.New(rand.NewSource(9))
	for episode := 0; episode < 10; episode++ {
		g.Reset()
		for g.Alive {
			if _, err := g.Step(Actions[rng.Intn(NumActions)]); err != nil {
				t.Fatal(err)
			}
			if g.Metric() != reward.Euclidean {
				t.Fatalf("metric changed mid-run to %v", g.Metric())
			}
		}
	}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]EpisodeStats{
		{Score: 2, Steps: 10, Death: DeathWall},
		{Score: 4, Steps: 30, Death: DeathSelf},
	})
	if agg.ScoreMean != 3 || agg.ScoreStd != 1 || agg.ScoreMax != 4 || agg.StepsMean != 20 {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.DeathCounts[DeathWall] != 1 || agg.DeathCounts[DeathSelf] != 1 {
		t.Fatalf("unexpected death counts %v", agg.DeathCounts)
	}
	if empty := Aggregate(nil); empty.NumEpisodes != 0 || empty.DeathCounts == nil {
		t.Fatalf("unexpected empty aggregate %+v", empty)
	}
}
