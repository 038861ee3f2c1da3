package policy

import (
	"slices"

	"snakerl/internal/env"
)

// QTable maps observations to action values. Unseen observations are
// worth zero for every action.
type QTable struct {
	values map[env.Observation][env.NumActions]float64
}

// NewQTable creates an empty table
func NewQTable() *QTable {
	return &QTable{values: make(map[env.Observation][env.NumActions]float64)}
}

// QValues implements ActionValuer
func (q *QTable) QValues(obs env.Observation) [env.NumActions]float64 {
	return q.values[obs]
}

// Set overwrites the values stored for obs
func (q *QTable) Set(obs env.Observation, values [env.NumActions]float64) {
	q.values[obs] = values
}

// Update applies one Q-learning step for tr and returns the TD error:
// Q(s,a) += alpha * (r + gamma * max Q(s') - Q(s,a)), with max Q(s') = 0
// on terminal transitions.
func (q *QTable) Update(tr env.Transition, alpha, gamma float64) float64 {
	target := tr.Reward
	if !tr.Terminal {
		next := q.values[tr.Next]
		target += gamma * maxValue(next)
	}
	row := q.values[tr.Obs]
	tdErr := target - row[tr.Action]
	row[tr.Action] += alpha * tdErr
	q.values[tr.Obs] = row
	return tdErr
}

// Len returns the number of observations with stored values
func (q *QTable) Len() int {
	return len(q.values)
}

// States returns the stored observations in ascending order
func (q *QTable) States() []env.Observation {
	out := make([]env.Observation, 0, len(q.values))
	for obs := range q.values {
		out = append(out, obs)
	}
	slices.Sort(out)
	return out
}

// Clone makes an independent copy
func (q *QTable) Clone() *QTable {
	c := &QTable{values: make(map[env.Observation][env.NumActions]float64, len(q.values))}
	for k, v := range q.values {
		c.values[k] = v
	}
	return c
}

func maxValue(v [env.NumActions]float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
