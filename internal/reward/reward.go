package reward

import (
	"errors"
	"fmt"
	"math"
)

// Reward values for each transition outcome
const (
	Collision = -10.0
	Food      = 10.0
	Closer    = 1.0
	Farther   = -1.0
)

// ErrConflictingOutcome is returned when a transition claims to be both
// terminal and food-eating. The environment never produces such a step.
var ErrConflictingOutcome = errors.New("reward: transition cannot be terminal and eat food")

// Metric measures the distance between the head and the food
type Metric int

const (
	Manhattan Metric = iota
	Euclidean
)

func (m Metric) String() string {
	switch m {
	case Manhattan:
		return "manhattan"
	case Euclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// ParseMetric maps a configuration name to a Metric
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "", "manhattan":
		return Manhattan, nil
	case "euclidean":
		return Euclidean, nil
	}
	return 0, fmt.Errorf("reward: unknown metric %q", name)
}

// Distance returns the length of the offset (dx, dy) under the metric
func (m Metric) Distance(dx, dy int) float64 {
	if m == Euclidean {
		return math.Hypot(float64(dx), float64(dy))
	}
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return float64(dx + dy)
}

// Outcome describes what happened during one transition
type Outcome struct {
	PrevDistance float64
	NewDistance  float64
	AteFood      bool
	Terminal     bool
}

// Shaper turns transition outcomes into scalar rewards. The metric is
// fixed when the shaper is built and cannot be changed afterwards.
type Shaper struct {
	metric Metric
}

// NewShaper creates a shaper measuring distances with m
func NewShaper(m Metric) Shaper {
	return Shaper{metric: m}
}

// Metric returns the distance metric used by the shaper
func (s Shaper) Metric() Metric {
	return s.metric
}

// Distance measures the offset (dx, dy) with the shaper's metric
func (s Shaper) Distance(dx, dy int) float64 {
	return s.metric.Distance(dx, dy)
}

// Shape computes the reward for an outcome. Terminal and food rewards
// dominate; the distance term only applies to ordinary moves.
func (s Shaper) Shape(o Outcome) (float64, error) {
	switch {
	case o.Terminal && o.AteFood:
		return 0, ErrConflictingOutcome
	case o.Terminal:
		return Collision, nil
	case o.AteFood:
		return Food, nil
	case o.NewDistance < o.PrevDistance:
		return Closer, nil
	case o.NewDistance > o.PrevDistance:
		return Farther, nil
	}
	return 0, nil
}
