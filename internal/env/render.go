package env

// Snapshot is a detached copy of the game state handed to renderers
type Snapshot struct {
	Width  int
	Height int
	Snake  []Point
	Dir    Direction
	Food   Point
	Score  int
	Tick   int
	Alive  bool
	Death  DeathReason
}

// RenderFunc receives a snapshot after every reset and step. It runs on
// the stepping goroutine, so a slow callback slows the game down, but the
// snapshot is a copy and nothing it does reaches back into the game.
type RenderFunc func(Snapshot)

// Snapshot copies the current state
func (g *Game) Snapshot() Snapshot {
	body := make([]Point, len(g.Snake))
	copy(body, g.Snake)
	return Snapshot{
		Width:  g.Width,
		Height: g.Height,
		Snake:  body,
		Dir:    g.Dir,
		Food:   g.Food,
		Score:  g.Score,
		Tick:   g.Tick,
		Alive:  g.Alive,
		Death:  g.DeathReason,
	}
}
