package reward

import (
	"errors"
	"testing"
)

func TestShape(t *testing.T) {
	s := NewShaper(Manhattan)
	tests := []struct {
		name string
		in   Outcome
		want float64
	}{
		{"closer", Outcome{PrevDistance: 4, NewDistance: 3}, Closer},
		{"farther", Outcome{PrevDistance: 3, NewDistance: 4}, Farther},
		{"unchanged", Outcome{PrevDistance: 3, NewDistance: 3}, 0},
		{"food while closer", Outcome{PrevDistance: 1, NewDistance: 0, AteFood: true}, Food},
		{"food while farther", Outcome{PrevDistance: 1, NewDistance: 7, AteFood: true}, Food},
		{"collision while closer", Outcome{PrevDistance: 5, NewDistance: 4, Terminal: true}, Collision},
		{"collision while farther", Outcome{PrevDistance: 4, NewDistance: 5, Terminal: true}, Collision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Shape(tt.in)
			if err != nil {
				t.Fatalf("Shape(%+v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Shape(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestShapeRejectsTerminalFood(t *testing.T) {
	s := NewShaper(Euclidean)
	_, err := s.Shape(Outcome{AteFood: true, Terminal: true})
	if !errors.Is(err, ErrConflictingOutcome) {
		t.Fatalf("expected ErrConflictingOutcome, got %v", err)
	}
}

func TestMetricStable(t *testing.T) {
	s := NewShaper(Manhattan)
	for i := 0; i < 100; i++ {
		if _, err := s.Shape(Outcome{PrevDistance: float64(i), NewDistance: float64(i % 7)}); err != nil {
			t.Fatal(err)
		}
		if s.Metric() != Manhattan {
			t.Fatalf("metric changed to %v after %d shapes", s.Metric(), i)
		}
	}
}

func TestDistance(t *testing.T) {
	if got := Manhattan.Distance(-3, 4); got != 7 {
		t.Errorf("manhattan = %v, want 7", got)
	}
	if got := Euclidean.Distance(-3, 4); got != 5 {
		t.Errorf("euclidean = %v, want 5", got)
	}
}

func TestParseMetric(t *testing.T) {
	for name, want := range map[string]Metric{"": Manhattan, "manhattan": Manhattan, "euclidean": Euclidean} {
		got, err := ParseMetric(name)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMetric("chebyshev"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
