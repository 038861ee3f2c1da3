// Package expreplay implements a fixed-capacity experience replay buffer
// with first-in first-out eviction and uniform sampling.
package expreplay

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"snakerl/internal/env"
)

var (
	// ErrEmpty is reported when sampling from a buffer with no transitions
	ErrEmpty = errors.New("buffer empty")
	// ErrInsufficientSamples is reported when a batch larger than the
	// number of stored transitions is requested
	ErrInsufficientSamples = errors.New("fewer transitions stored than requested")
)

// Error implements errors unique to the replay buffer
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "expreplay " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Buffer is a ring of transitions. Once full, each Add overwrites the
// oldest entry.
type Buffer struct {
	data  []env.Transition
	start int // index of the oldest entry
	size  int
	rng   *rand.Rand
}

// New creates an empty buffer with the given capacity. Sampling is driven
// by a source seeded with seed.
func New(capacity int, seed uint64) (*Buffer, error) {
	if capacity < 1 {
		return nil, &Error{Op: "new", Err: fmt.Errorf("capacity %d must be positive", capacity)}
	}
	return &Buffer{
		data: make([]env.Transition, capacity),
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// Add appends a transition, evicting the oldest when full
func (b *Buffer) Add(t env.Transition) {
	if b.size < len(b.data) {
		b.data[(b.start+b.size)%len(b.data)] = t
		b.size++
		return
	}
	b.data[b.start] = t
	b.start = (b.start + 1) % len(b.data)
}

// Len returns the number of stored transitions
func (b *Buffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity
func (b *Buffer) Cap() int {
	return len(b.data)
}

// At returns the i-th stored transition, 0 being the oldest
func (b *Buffer) At(i int) env.Transition {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("expreplay: index %d out of range [0, %d)", i, b.size))
	}
	return b.data[(b.start+i)%len(b.data)]
}

// Sample draws n transitions uniformly with replacement
func (b *Buffer) Sample(n int) ([]env.Transition, error) {
	if b.size == 0 {
		return nil, &Error{Op: "sample", Err: ErrEmpty}
	}
	if n > b.size {
		return nil, &Error{Op: "sample", Err: fmt.Errorf("%w: want %d, have %d", ErrInsufficientSamples, n, b.size)}
	}
	out := make([]env.Transition, n)
	for i := range out {
		out[i] = b.At(b.rng.Intn(b.size))
	}
	return out, nil
}
