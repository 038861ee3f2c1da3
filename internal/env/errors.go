package env

import "fmt"

// SimulationError reports an invalid state transition. It is always a
// programming error on the caller's side.
type SimulationError struct {
	Op     string
	Reason string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation %s: %s", e.Op, e.Reason)
}
