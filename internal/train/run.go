// Package train runs the Q-learning loops: a parallel tabular trainer and
// a single-threaded trainer for the neural network approximation.
package train

import (
	"snakerl/internal/policy"
)

// Status is how a training run ended
type Status int

const (
	TargetReached Status = iota
	BudgetExhausted
	FatalDivergence
)

func (s Status) String() string {
	switch s {
	case TargetReached:
		return "TARGET_REACHED"
	case BudgetExhausted:
		return "BUDGET_EXHAUSTED"
	case FatalDivergence:
		return "FATAL_DIVERGENCE"
	}
	return "UNKNOWN"
}

// Run is the progress record of one training loop. Each trainer, and each
// tabular worker, owns its own.
type Run struct {
	Episode     int // episodes finished so far
	BestScore   int
	BestEpisode int
	Epsilon     float64
}

// NewRun returns a run with no finished episode
func NewRun() *Run {
	return &Run{BestScore: -1, BestEpisode: -1}
}

// Finish records a finished episode and reports whether it set a new best
func (r *Run) Finish(score int) bool {
	episode := r.Episode
	r.Episode++
	if score > r.BestScore {
		r.BestScore = score
		r.BestEpisode = episode
		return true
	}
	return false
}

// Result is the outcome of a training run
type Result struct {
	Status    Status
	Artifact  *policy.Artifact
	BestScore int
	Episodes  int // episodes played, summed over workers
	Worker    int // worker that produced the artifact, -1 when not applicable
}

// Usable reports whether the run produced a policy worth keeping
func (r *Result) Usable() bool {
	return r != nil && r.Artifact != nil
}
