package env

import (
	"fmt"

	"golang.org/x/exp/rand"

	"snakerl/internal/reward"
)

// Direction represents the snake's heading, in clockwise order
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	}
	return "unknown"
}

// Turn returns the heading after applying a relative action
func (d Direction) Turn(a Action) Direction {
	switch a {
	case ActionRight:
		return (d + 1) % 4
	case ActionLeft:
		return (d + 3) % 4
	}
	return d
}

// Action represents a relative action
type Action int

const (
	ActionStraight Action = iota
	ActionRight
	ActionLeft
)

// NumActions is the size of the action set
const NumActions = 3

// Actions lists every action in tie-break order
var Actions = [NumActions]Action{ActionStraight, ActionRight, ActionLeft}

// Valid reports whether a is one of the defined actions
func (a Action) Valid() bool {
	return a >= ActionStraight && a <= ActionLeft
}

func (a Action) String() string {
	switch a {
	case ActionStraight:
		return "STRAIGHT"
	case ActionRight:
		return "RIGHT"
	case ActionLeft:
		return "LEFT"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Point represents a coordinate on the grid
type Point struct {
	X, Y int
}

// Move returns the neighbouring point in direction d. Y grows downwards.
func (p Point) Move(d Direction) Point {
	switch d {
	case DirUp:
		return Point{X: p.X, Y: p.Y - 1}
	case DirRight:
		return Point{X: p.X + 1, Y: p.Y}
	case DirDown:
		return Point{X: p.X, Y: p.Y + 1}
	case DirLeft:
		return Point{X: p.X - 1, Y: p.Y}
	}
	return p
}

// offGrid parks the food once the board is full
var offGrid = Point{X: -1, Y: -1}

// Config holds the environment parameters
type Config struct {
	Width       int
	Height      int
	StartLength int
	// StallFactor ends an episode after StallFactor*len(body) ticks
	// without food. Zero disables the limit.
	StallFactor int
	Metric      reward.Metric
}

// StepResult is what the environment reports after one transition
type StepResult struct {
	Obs      Observation
	Reward   float64
	Terminal bool
	Score    int
	AteFood  bool
}

// Game represents the snake game environment
type Game struct {
	Width       int
	Height      int
	StartLength int
	StallFactor int

	// State
	Snake       []Point // head is at index 0
	Dir         Direction
	Food        Point
	Score       int
	Tick        int
	TicksNoFood int
	TotalReward float64
	Alive       bool
	DeathReason DeathReason

	seed   uint64
	shaper reward.Shaper
	rng    *rand.Rand
	render RenderFunc
}

// GameOption customises a Game
type GameOption func(*Game)

// WithRenderer installs a callback invoked after every reset and step
func WithRenderer(fn RenderFunc) GameOption {
	return func(g *Game) {
		g.render = fn
	}
}

// NewGame creates a new game instance. Food placement is driven by a
// source seeded with seed, so the same seed and actions always replay
// the same episode.
func NewGame(cfg Config, seed uint64, opts ...GameOption) *Game {
	g := &Game{
		Width:       cfg.Width,
		Height:      cfg.Height,
		StartLength: cfg.StartLength,
		StallFactor: cfg.StallFactor,
		seed:        seed,
		shaper:      reward.NewShaper(cfg.Metric),
		rng:         rand.New(rand.NewSource(seed)),
	}
	if g.StartLength < 1 {
		g.StartLength = 1
	}
	for _, opt := range opts {
		opt(g)
	}
	g.Reset()
	return g
}

// Seed returns the seed the game was created with
func (g *Game) Seed() uint64 {
	return g.seed
}

// Metric returns the distance metric used for reward shaping
func (g *Game) Metric() reward.Metric {
	return g.shaper.Metric()
}

// Reset starts a fresh episode and returns its first observation.
// The random stream is not reseeded, so consecutive episodes differ.
func (g *Game) Reset() Observation {
	g.Score = 0
	g.Tick = 0
	g.TicksNoFood = 0
	g.TotalReward = 0
	g.Alive = true
	g.DeathReason = DeathNone

	// Spawn snake in center, facing right
	centerX := g.Width / 2
	centerY := g.Height / 2
	g.Dir = DirRight

	g.Snake = make([]Point, g.StartLength)
	for i := range g.Snake {
		g.Snake[i] = Point{X: centerX - i, Y: centerY}
	}

	g.placeFood()
	g.emit()
	return Encode(g)
}

// Step advances the game by one tick with the given action
func (g *Game) Step(action Action) (StepResult, error) {
	if !action.Valid() {
		return StepResult{}, &SimulationError{Op: "step", Reason: fmt.Sprintf("invalid action %d", int(action))}
	}
	if !g.Alive {
		return StepResult{}, &SimulationError{Op: "step", Reason: "episode already terminated"}
	}

	prevDist := g.distanceToFood()
	g.Tick++
	g.TicksNoFood++
	g.Dir = g.Dir.Turn(action)
	newHead := g.Snake[0].Move(g.Dir)

	ateFood := false
	switch {
	case !g.inBounds(newHead):
		g.die(DeathWall)
	case g.occupied(newHead):
		g.die(DeathSelf)
	case newHead == g.Food:
		// Grow: keep the tail
		ateFood = true
		g.Snake = append([]Point{newHead}, g.Snake...)
		g.Score++
		g.TicksNoFood = 0
		g.placeFood()
	default:
		g.Snake = append([]Point{newHead}, g.Snake[:len(g.Snake)-1]...)
		if g.StallFactor > 0 && g.TicksNoFood > g.StallFactor*len(g.Snake) {
			g.die(DeathStall)
		}
	}

	r, err := g.shaper.Shape(reward.Outcome{
		PrevDistance: prevDist,
		NewDistance:  g.distanceToFood(),
		AteFood:      ateFood,
		Terminal:     !g.Alive,
	})
	if err != nil {
		return StepResult{}, &SimulationError{Op: "reward", Reason: err.Error()}
	}
	g.TotalReward += r

	res := StepResult{
		Obs:      Encode(g),
		Reward:   r,
		Terminal: !g.Alive,
		Score:    g.Score,
		AteFood:  ateFood,
	}
	g.emit()
	return res, nil
}

func (g *Game) die(reason DeathReason) {
	g.Alive = false
	g.DeathReason = reason
}

func (g *Game) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// occupied reports whether p is covered by any body segment
func (g *Game) occupied(p Point) bool {
	for _, s := range g.Snake {
		if s == p {
			return true
		}
	}
	return false
}

// placeFood places food at a random empty cell
func (g *Game) placeFood() {
	occupied := make(map[Point]bool, len(g.Snake))
	for _, p := range g.Snake {
		occupied[p] = true
	}

	var empty []Point
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				empty = append(empty, p)
			}
		}
	}

	if len(empty) == 0 {
		g.Food = offGrid
		return
	}
	g.Food = empty[g.rng.Intn(len(empty))]
}

func (g *Game) distanceToFood() float64 {
	head := g.Snake[0]
	return g.shaper.Distance(g.Food.X-head.X, g.Food.Y-head.Y)
}

// Head returns the snake's head position
func (g *Game) Head() Point {
	return g.Snake[0]
}

// IsDangerWall checks if moving in direction would hit wall
func (g *Game) IsDangerWall(a Action) bool {
	return !g.inBounds(g.Snake[0].Move(g.Dir.Turn(a)))
}

// IsDangerBody checks if moving in direction would hit body
func (g *Game) IsDangerBody(a Action) bool {
	return g.occupied(g.Snake[0].Move(g.Dir.Turn(a)))
}

// IsDanger checks if moving in direction would cause any collision
func (g *Game) IsDanger(a Action) bool {
	return g.IsDangerWall(a) || g.IsDangerBody(a)
}

// Stats returns the episode statistics
func (g *Game) Stats() EpisodeStats {
	return EpisodeStats{
		Score:       g.Score,
		Steps:       g.Tick,
		TotalReward: g.TotalReward,
		Death:       g.DeathReason,
		Seed:        g.seed,
	}
}

func (g *Game) emit() {
	if g.render != nil {
		g.render(g.Snapshot())
	}
}
