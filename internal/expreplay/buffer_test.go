package expreplay

import (
	"errors"
	"testing"

	"snakerl/internal/env"
)

func transition(i int) env.Transition {
	return env.Transition{Obs: env.Observation(i), Reward: float64(i)}
}

func TestFIFOEviction(t *testing.T) {
	const capacity = 5
	b, err := New(capacity, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i <= capacity; i++ {
		b.Add(transition(i))
	}
	if b.Len() != capacity || b.Cap() != capacity {
		t.Fatalf("Len=%d Cap=%d", b.Len(), b.Cap())
	}
	// the first insert is gone, the rest keep insertion order
	for i := 0; i < capacity; i++ {
		if got := b.At(i).Obs; got != env.Observation(i+1) {
			t.Fatalf("At(%d)=%d want %d", i, got, i+1)
		}
	}
}

func TestWrapAroundOrder(t *testing.T) {
	b, _ := New(3, 1)
	for i := 0; i < 10; i++ {
		b.Add(transition(i))
	}
	for i, want := range []int{7, 8, 9} {
		if got := b.At(i).Obs; got != env.Observation(want) {
			t.Fatalf("At(%d)=%d want %d", i, got, want)
		}
	}
}

func TestSampleErrors(t *testing.T) {
	b, _ := New(4, 1)
	_, err := b.Sample(1)
	var replayErr *Error
	if !errors.As(err, &replayErr) || !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty buffer: %v", err)
	}
	b.Add(transition(1))
	if _, err := b.Sample(2); !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("under-filled buffer: %v", err)
	}
}

func TestSampleDrawsStoredTransitions(t *testing.T) {
	b, _ := New(8, 3)
	for i := 0; i < 20; i++ {
		b.Add(transition(i))
	}
	seen := map[env.Observation]bool{}
	for k := 0; k < 50; k++ {
		batch, err := b.Sample(8)
		if err != nil {
			t.Fatal(err)
		}
		if len(batch) != 8 {
			t.Fatalf("batch of %d", len(batch))
		}
		for _, tr := range batch {
			if tr.Obs < 12 || tr.Obs > 19 {
				t.Fatalf("sampled evicted transition %d", tr.Obs)
			}
			seen[tr.Obs] = true
		}
	}
	if len(seen) != 8 {
		t.Fatalf("uniform sampling reached only %d of 8 entries", len(seen))
	}
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	if _, err := New(0, 1); err == nil {
		t.Fatal("expected error")
	}
}
