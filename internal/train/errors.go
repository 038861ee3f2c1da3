package train

import (
	"errors"
	"fmt"
)

// ErrAllWorkersFailed is returned when no tabular worker produced a report
var ErrAllWorkersFailed = errors.New("train: every worker failed")

// WorkerFailure wraps the error or panic that ended a tabular worker
type WorkerFailure struct {
	Worker int
	Err    error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker %d: %v", e.Worker, e.Err)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}
