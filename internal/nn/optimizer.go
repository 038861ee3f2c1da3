package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Optimizer applies a gradient to a flat parameter vector in place
type Optimizer interface {
	Step(params, grad []float64)
}

// NewOptimizer builds an optimizer by name: "adam" or "sgd"
func NewOptimizer(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "", "adam":
		return NewAdam(learningRate), nil
	case "sgd":
		return &SGD{LearningRate: learningRate}, nil
	}
	return nil, fmt.Errorf("nn: unknown optimizer %q", name)
}

// SGD is plain stochastic gradient descent
type SGD struct {
	LearningRate float64
}

// Step implements Optimizer
func (s *SGD) Step(params, grad []float64) {
	floats.AddScaled(params, -s.LearningRate, grad)
}

// Adam keeps per-parameter first and second moment estimates
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v []float64
	t    int
}

// NewAdam returns Adam with the usual defaults
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Step implements Optimizer
func (a *Adam) Step(params, grad []float64) {
	if len(a.m) != len(params) {
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
		a.t = 0
	}
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, g := range grad {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}
