package nn

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ErrNumericAnomaly is returned when a loss or gradient is NaN or Inf.
// The weights are left untouched when it is returned.
var ErrNumericAnomaly = errors.New("nn: non-finite loss or gradient")

// MLP is a feedforward network with one ReLU hidden layer and a linear
// output layer
type MLP struct {
	InputSize  int
	Hidden     int
	OutputSize int

	// Weights stored contiguously: W1 (Hidden x InputSize, row-major),
	// B1, W2 (OutputSize x Hidden), B2. The matrices below are views.
	Weights []float64

	w1 *mat.Dense
	b1 []float64
	w2 *mat.Dense
	b2 []float64
}

// NewMLP creates a new MLP with the given architecture and zero weights
func NewMLP(inputSize, hidden, outputSize int) *MLP {
	m := &MLP{
		InputSize:  inputSize,
		Hidden:     hidden,
		OutputSize: outputSize,
	}
	m.Weights = make([]float64, m.ParamCount())
	m.w1, m.b1, m.w2, m.b2 = m.views(m.Weights)
	return m
}

// ParamCount returns the total number of weights (including biases)
func (m *MLP) ParamCount() int {
	return (m.InputSize+1)*m.Hidden + (m.Hidden+1)*m.OutputSize
}

// Layers returns the layer sizes, input first
func (m *MLP) Layers() []int {
	return []int{m.InputSize, m.Hidden, m.OutputSize}
}

// views slices a flat parameter vector into the layer matrices
func (m *MLP) views(data []float64) (*mat.Dense, []float64, *mat.Dense, []float64) {
	off := 0
	w1 := mat.NewDense(m.Hidden, m.InputSize, data[off:off+m.Hidden*m.InputSize])
	off += m.Hidden * m.InputSize
	b1 := data[off : off+m.Hidden]
	off += m.Hidden
	w2 := mat.NewDense(m.OutputSize, m.Hidden, data[off:off+m.OutputSize*m.Hidden])
	off += m.OutputSize * m.Hidden
	b2 := data[off : off+m.OutputSize]
	return w1, b1, w2, b2
}

// Init draws He-initialised weights and zero biases
func (m *MLP) Init(rng *rand.Rand) {
	for i := range m.Weights {
		m.Weights[i] = 0
	}
	scale1 := math.Sqrt(2.0 / float64(m.InputSize))
	raw := m.w1.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64() * scale1
	}
	scale2 := math.Sqrt(2.0 / float64(m.Hidden))
	raw = m.w2.RawMatrix().Data
	for i := range raw {
		raw[i] = rng.NormFloat64() * scale2
	}
}

// SetParams copies a flat parameter vector into the network
func (m *MLP) SetParams(params []float64) error {
	if len(params) != len(m.Weights) {
		return fmt.Errorf("nn: got %d params, network has %d", len(params), len(m.Weights))
	}
	copy(m.Weights, params)
	return nil
}

// Params returns a copy of the flat parameter vector
func (m *MLP) Params() []float64 {
	out := make([]float64, len(m.Weights))
	copy(out, m.Weights)
	return out
}

// Clone makes a deep copy of the network
func (m *MLP) Clone() *MLP {
	c := NewMLP(m.InputSize, m.Hidden, m.OutputSize)
	copy(c.Weights, m.Weights)
	return c
}

// CopyFrom overwrites the weights with those of src
func (m *MLP) CopyFrom(src *MLP) {
	copy(m.Weights, src.Weights)
}

// Forward performs a forward pass and returns the output values
func (m *MLP) Forward(input []float64) []float64 {
	x := mat.NewVecDense(m.InputSize, input)

	h := mat.NewVecDense(m.Hidden, nil)
	h.MulVec(m.w1, x)
	for j := 0; j < m.Hidden; j++ {
		h.SetVec(j, relu(h.AtVec(j)+m.b1[j]))
	}

	out := mat.NewVecDense(m.OutputSize, nil)
	out.MulVec(m.w2, h)
	res := make([]float64, m.OutputSize)
	for j := range res {
		res[j] = out.AtVec(j) + m.b2[j] // no activation on output
	}
	return res
}

// forwardBatch runs rows of x through the network, keeping the
// intermediate values needed for backpropagation
func (m *MLP) forwardBatch(x *mat.Dense) (pre, hidden, out *mat.Dense) {
	n, _ := x.Dims()

	pre = mat.NewDense(n, m.Hidden, nil)
	pre.Mul(x, m.w1.T())
	hidden = mat.NewDense(n, m.Hidden, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m.Hidden; j++ {
			v := pre.At(i, j) + m.b1[j]
			pre.Set(i, j, v)
			hidden.Set(i, j, relu(v))
		}
	}

	out = mat.NewDense(n, m.OutputSize, nil)
	out.Mul(hidden, m.w2.T())
	for i := 0; i < n; i++ {
		for j := 0; j < m.OutputSize; j++ {
			out.Set(i, j, out.At(i, j)+m.b2[j])
		}
	}
	return pre, hidden, out
}

// Gradients computes the mean squared error between the output selected
// by actions[i] for row i of x and targets[i], along with its gradient
// with respect to Weights (same layout)
func (m *MLP) Gradients(x *mat.Dense, actions []int, targets []float64) (float64, []float64, error) {
	n, cols := x.Dims()
	if cols != m.InputSize || len(actions) != n || len(targets) != n {
		return 0, nil, fmt.Errorf("nn: batch shape %dx%d with %d actions and %d targets", n, cols, len(actions), len(targets))
	}

	pre, hidden, out := m.forwardBatch(x)

	var loss float64
	dOut := mat.NewDense(n, m.OutputSize, nil)
	for i := 0; i < n; i++ {
		diff := out.At(i, actions[i]) - targets[i]
		loss += diff * diff
		dOut.Set(i, actions[i], 2*diff/float64(n))
	}
	loss /= float64(n)
	if !isFinite(loss) {
		return loss, nil, ErrNumericAnomaly
	}

	grad := make([]float64, len(m.Weights))
	gw1, gb1, gw2, gb2 := m.views(grad)

	// Output layer
	gw2.Mul(dOut.T(), hidden)
	for i := 0; i < n; i++ {
		for j := 0; j < m.OutputSize; j++ {
			gb2[j] += dOut.At(i, j)
		}
	}

	// Hidden layer, through the ReLU
	dHidden := mat.NewDense(n, m.Hidden, nil)
	dHidden.Mul(dOut, m.w2)
	for i := 0; i < n; i++ {
		for j := 0; j < m.Hidden; j++ {
			if pre.At(i, j) <= 0 {
				dHidden.Set(i, j, 0)
			}
			gb1[j] += dHidden.At(i, j)
		}
	}
	gw1.Mul(dHidden.T(), x)

	if !allFinite(grad) {
		return loss, nil, ErrNumericAnomaly
	}
	return loss, grad, nil
}

// Fit takes one optimizer step on the batch. On ErrNumericAnomaly the
// weights keep their previous values.
func (m *MLP) Fit(x *mat.Dense, actions []int, targets []float64, opt Optimizer) (float64, error) {
	loss, grad, err := m.Gradients(x, actions, targets)
	if err != nil {
		return loss, err
	}
	backup := m.Params()
	opt.Step(m.Weights, grad)
	if !allFinite(m.Weights) {
		copy(m.Weights, backup)
		return loss, ErrNumericAnomaly
	}
	return loss, nil
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if !isFinite(x) {
			return false
		}
	}
	return true
}
