package policy

import (
	"fmt"

	"snakerl/internal/env"
)

// Kind names the policy representation stored in an Artifact
type Kind string

const (
	KindTabular     Kind = "tabular"
	KindApproximate Kind = "approximate"
)

// TableEntry is one row of a serialized QTable
type TableEntry struct {
	State string                  `json:"state"`
	Q     [env.NumActions]float64 `json:"q"`
}

// Artifact is the exported form of a trained policy. Loading it back
// yields the same greedy action for every observation.
type Artifact struct {
	Kind    Kind         `json:"kind"`
	Score   int          `json:"score"`
	Episode int          `json:"episode"`
	Table   []TableEntry `json:"table,omitempty"`
	Layers  []int        `json:"layers,omitempty"`
	Weights []float64    `json:"weights,omitempty"`
}

// TabularArtifact exports a table. Entries are sorted by observation.
func TabularArtifact(q *QTable, score, episode int) *Artifact {
	a := &Artifact{Kind: KindTabular, Score: score, Episode: episode}
	for _, obs := range q.States() {
		a.Table = append(a.Table, TableEntry{State: obs.String(), Q: q.QValues(obs)})
	}
	return a
}

// NetworkArtifact exports a copy of the network weights
func NetworkArtifact(n *Network, score, episode int) *Artifact {
	return &Artifact{
		Kind:    KindApproximate,
		Score:   score,
		Episode: episode,
		Layers:  n.MLP.Layers(),
		Weights: n.MLP.Params(),
	}
}

// Policy rebuilds the action-value function
func (a *Artifact) Policy() (ActionValuer, error) {
	switch a.Kind {
	case KindTabular:
		q := NewQTable()
		for _, e := range a.Table {
			obs, err := env.ParseObservation(e.State)
			if err != nil {
				return nil, fmt.Errorf("artifact: %w", err)
			}
			q.Set(obs, e.Q)
		}
		return q, nil
	case KindApproximate:
		if len(a.Layers) != 3 || a.Layers[0] != env.NumFeatures || a.Layers[2] != env.NumActions || a.Layers[1] < 1 {
			return nil, fmt.Errorf("artifact: unsupported layers %v", a.Layers)
		}
		n := NewNetwork(a.Layers[1])
		if err := n.MLP.SetParams(a.Weights); err != nil {
			return nil, fmt.Errorf("artifact: %w", err)
		}
		return n, nil
	}
	return nil, fmt.Errorf("artifact: unknown kind %q", a.Kind)
}
