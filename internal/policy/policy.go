// Package policy holds the action-value functions learned by the trainers
// and the rules for turning them into actions.
package policy

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"snakerl/internal/env"
)

// ErrEpsilonRange is returned for an exploration rate outside [0, 1]
var ErrEpsilonRange = errors.New("policy: epsilon must be within [0, 1]")

// ActionValuer maps an observation to one value per action
type ActionValuer interface {
	QValues(obs env.Observation) [env.NumActions]float64
}

// Greedy returns the action with the highest value. Ties go to the
// lowest index, so STRAIGHT beats RIGHT beats LEFT.
func Greedy(v ActionValuer, obs env.Observation) env.Action {
	q := v.QValues(obs)
	best := 0
	for i := 1; i < env.NumActions; i++ {
		if q[i] > q[best] {
			best = i
		}
	}
	return env.Actions[best]
}

// Selector is an epsilon-greedy action selector with its own random stream
type Selector struct {
	epsilon float64
	rng     *rand.Rand
}

// NewSelector creates a selector seeded with seed
func NewSelector(epsilon float64, seed uint64) (*Selector, error) {
	s := &Selector{rng: rand.New(rand.NewSource(seed))}
	if err := s.SetEpsilon(epsilon); err != nil {
		return nil, err
	}
	return s, nil
}

// SetEpsilon changes the exploration rate
func (s *Selector) SetEpsilon(epsilon float64) error {
	if !(epsilon >= 0 && epsilon <= 1) {
		return fmt.Errorf("%w: got %v", ErrEpsilonRange, epsilon)
	}
	s.epsilon = epsilon
	return nil
}

// Epsilon returns the current exploration rate
func (s *Selector) Epsilon() float64 {
	return s.epsilon
}

// Select picks a uniformly random action with probability epsilon and
// the greedy action otherwise
func (s *Selector) Select(v ActionValuer, obs env.Observation) env.Action {
	if s.epsilon > 0 && s.rng.Float64() < s.epsilon {
		return env.Actions[s.rng.Intn(env.NumActions)]
	}
	return Greedy(v, obs)
}
