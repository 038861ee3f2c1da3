package env

import (
	"fmt"
	"strings"
)

// Feature indices of an Observation
const (
	DangerStraight = iota
	DangerRight
	DangerLeft
	DirLeftFeature
	DirRightFeature
	DirUpFeature
	DirDownFeature
	FoodLeft
	FoodRight
	FoodUp
	FoodDown

	NumFeatures
)

// NumObservations is the number of distinct 11-bit patterns
const NumObservations = 1 << NumFeatures

// Observation packs the 11 boolean features into an integer; bit i holds
// feature i. Two equal game states always encode to the same value.
type Observation uint16

// Has reports whether feature f is set
func (o Observation) Has(f int) bool {
	return o&(1<<f) != 0
}

// With returns o with feature f set to v
func (o Observation) With(f int, v bool) Observation {
	if v {
		return o | 1<<f
	}
	return o &^ (1 << f)
}

// Features unpacks the observation
func (o Observation) Features() [NumFeatures]bool {
	var out [NumFeatures]bool
	for i := range out {
		out[i] = o.Has(i)
	}
	return out
}

// Vector returns the observation as network input
func (o Observation) Vector() []float64 {
	v := make([]float64, NumFeatures)
	for i := range v {
		if o.Has(i) {
			v[i] = 1
		}
	}
	return v
}

// String renders the features as a fixed-order bit string, feature 0 first
func (o Observation) String() string {
	var sb strings.Builder
	sb.Grow(NumFeatures)
	for i := 0; i < NumFeatures; i++ {
		if o.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseObservation is the inverse of Observation.String
func ParseObservation(s string) (Observation, error) {
	if len(s) != NumFeatures {
		return 0, fmt.Errorf("observation %q: want %d bits, got %d", s, NumFeatures, len(s))
	}
	var o Observation
	for i := 0; i < NumFeatures; i++ {
		switch s[i] {
		case '1':
			o = o.With(i, true)
		case '0':
		default:
			return 0, fmt.Errorf("observation %q: invalid bit %q at %d", s, s[i], i)
		}
	}
	return o, nil
}

// Encode builds the observation for the current game state without
// mutating it
func Encode(g *Game) Observation {
	var o Observation

	// Danger signals
	o = o.With(DangerStraight, g.IsDanger(ActionStraight))
	o = o.With(DangerRight, g.IsDanger(ActionRight))
	o = o.With(DangerLeft, g.IsDanger(ActionLeft))

	// Heading, one-hot
	o = o.With(DirLeftFeature, g.Dir == DirLeft)
	o = o.With(DirRightFeature, g.Dir == DirRight)
	o = o.With(DirUpFeature, g.Dir == DirUp)
	o = o.With(DirDownFeature, g.Dir == DirDown)

	// Food offset relative to the head
	head := g.Snake[0]
	o = o.With(FoodLeft, g.Food.X < head.X)
	o = o.With(FoodRight, g.Food.X > head.X)
	o = o.With(FoodUp, g.Food.Y < head.Y)
	o = o.With(FoodDown, g.Food.Y > head.Y)

	return o
}
