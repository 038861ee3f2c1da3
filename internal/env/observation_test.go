package env

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestEncodeInitialState(t *testing.T) {
	g := NewGame(testConfig(), 1)
	g.Food = Point{8, 5}

	got := Encode(g)
	want := Observation(0).With(DirRightFeature, true).With(FoodRight, true)
	if got != want {
		t.Fatalf("Encode=%s want %s", got, want)
	}
}

func TestEncodeWallAhead(t *testing.T) {
	g := NewGame(testConfig(), 1)
	g.Snake = []Point{{9, 5}, {8, 5}, {7, 5}}
	g.Food = Point{9, 2}

	obs := Encode(g)
	if !obs.Has(DangerStraight) {
		t.Fatalf("danger-straight not set: %s", obs)
	}
	if obs.Has(DangerRight) || obs.Has(DangerLeft) {
		t.Fatalf("unexpected side danger: %s", obs)
	}
	if !obs.Has(FoodUp) || obs.Has(FoodDown) || obs.Has(FoodLeft) || obs.Has(FoodRight) {
		t.Fatalf("food flags wrong: %s", obs)
	}
}

func TestEncodeDangerDirections(t *testing.T) {
	tests := []struct {
		name  string
		head  Point
		dir   Direction
		flags []int
	}{
		{"top edge heading up", Point{5, 0}, DirUp, []int{DangerStraight}},
		{"top edge heading right", Point{5, 0}, DirRight, []int{DangerLeft}},
		{"top edge heading left", Point{5, 0}, DirLeft, []int{DangerRight}},
		{"corner heading down", Point{0, 9}, DirDown, []int{DangerStraight, DangerRight}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGame(testConfig(), 1)
			g.Snake = []Point{tt.head}
			g.Dir = tt.dir
			g.Food = tt.head
			obs := Encode(g)
			var want Observation
			for _, f := range tt.flags {
				want = want.With(f, true)
			}
			got := obs & 0b111
			if got != want {
				t.Fatalf("danger bits=%03b want %03b", got, want)
			}
		})
	}
}

func TestEncodeExactlyOneDirection(t *testing.T) {
	g := NewGame(testConfig(), 21)
	rng := rand.New(rand.NewSource(21))
	for episode := 0; episode < 30; episode++ {
		g.Reset()
		for g.Alive {
			obs := Encode(g)
			count := 0
			for _, f := range []int{DirLeftFeature, DirRightFeature, DirUpFeature, DirDownFeature} {
				if obs.Has(f) {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("observation %s has %d direction flags", obs, count)
			}
			if _, err := g.Step(Actions[rng.Intn(NumActions)]); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestEncodeIsPure(t *testing.T) {
	g := NewGame(testConfig(), 2)
	before := g.Snapshot()
	a, b := Encode(g), Encode(g)
	if a != b {
		t.Fatalf("Encode not stable: %s vs %s", a, b)
	}
	after := g.Snapshot()
	if before.Food != after.Food || before.Dir != after.Dir || before.Snake[0] != after.Snake[0] || before.Tick != after.Tick {
		t.Fatal("Encode mutated the game")
	}
}

func TestObservationStringRoundTrip(t *testing.T) {
	for i := 0; i < NumObservations; i++ {
		o := Observation(i)
		s := o.String()
		got, err := ParseObservation(s)
		if err != nil {
			t.Fatalf("ParseObservation(%q): %v", s, err)
		}
		if got != o {
			t.Fatalf("round trip %d -> %q -> %d", o, s, got)
		}
	}
	if s := Observation(0).With(DangerStraight, true).String(); s != "10000000000" {
		t.Fatalf("bit order: got %q", s)
	}
	for _, bad := range []string{"", "101", "1000000000x"} {
		if _, err := ParseObservation(bad); err == nil {
			t.Errorf("ParseObservation(%q) accepted", bad)
		}
	}
}

func TestObservationVector(t *testing.T) {
	o := Observation(0).With(DangerLeft, true).With(FoodDown, true)
	v := o.Vector()
	if len(v) != NumFeatures {
		t.Fatalf("len=%d", len(v))
	}
	for i, x := range v {
		want := 0.0
		if i == DangerLeft || i == FoodDown {
			want = 1
		}
		if x != want {
			t.Fatalf("v[%d]=%v want %v", i, x, want)
		}
	}
}
