package policy

import (
	"gonum.org/v1/gonum/mat"

	"snakerl/internal/env"
	"snakerl/internal/nn"
)

// Network is an action-value function backed by an MLP with
// env.NumFeatures inputs and env.NumActions outputs
type Network struct {
	MLP *nn.MLP
}

// NewNetwork creates a network with zero weights
func NewNetwork(hidden int) *Network {
	return &Network{MLP: nn.NewMLP(env.NumFeatures, hidden, env.NumActions)}
}

// QValues implements ActionValuer
func (n *Network) QValues(obs env.Observation) [env.NumActions]float64 {
	out := n.MLP.Forward(obs.Vector())
	var q [env.NumActions]float64
	copy(q[:], out)
	return q
}

// Clone makes an independent copy
func (n *Network) Clone() *Network {
	return &Network{MLP: n.MLP.Clone()}
}

// Inputs stacks observations into a batch matrix, one row each
func Inputs(obs []env.Observation) *mat.Dense {
	x := mat.NewDense(len(obs), env.NumFeatures, nil)
	for i, o := range obs {
		for f := 0; f < env.NumFeatures; f++ {
			if o.Has(f) {
				x.Set(i, f, 1)
			}
		}
	}
	return x
}
