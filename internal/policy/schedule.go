package policy

import (
	"fmt"
	"math"
)

// Schedule yields the exploration rate for a worker-local episode index
type Schedule interface {
	Epsilon(episode int) float64
}

// LinearDecay is max(Floor, Start - Decay*episode)
type LinearDecay struct {
	Start float64
	Floor float64
	Decay float64
}

// Epsilon implements Schedule
func (l LinearDecay) Epsilon(episode int) float64 {
	return math.Max(l.Floor, l.Start-l.Decay*float64(episode))
}

// ExponentialDecay is max(Floor, Start * Decay^episode)
type ExponentialDecay struct {
	Start float64
	Floor float64
	Decay float64
}

// Epsilon implements Schedule
func (e ExponentialDecay) Epsilon(episode int) float64 {
	return math.Max(e.Floor, e.Start*math.Pow(e.Decay, float64(episode)))
}

// NewSchedule builds a schedule by name: "linear" or "exponential"
func NewSchedule(kind string, start, floor, decay float64) (Schedule, error) {
	if !(start >= 0 && start <= 1) {
		return nil, fmt.Errorf("%w: start %v", ErrEpsilonRange, start)
	}
	if !(floor > 0 && floor <= start) {
		return nil, fmt.Errorf("policy: floor %v must be in (0, start]", floor)
	}
	switch kind {
	case "", "linear":
		if decay < 0 {
			return nil, fmt.Errorf("policy: linear decay %v is negative", decay)
		}
		return LinearDecay{Start: start, Floor: floor, Decay: decay}, nil
	case "exponential":
		if !(decay > 0 && decay <= 1) {
			return nil, fmt.Errorf("policy: exponential decay %v must be in (0, 1]", decay)
		}
		return ExponentialDecay{Start: start, Floor: floor, Decay: decay}, nil
	}
	return nil, fmt.Errorf("policy: unknown schedule %q", kind)
}
