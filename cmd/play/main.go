package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"snakerl/internal/config"
	"snakerl/internal/env"
	"snakerl/internal/eval"
	"snakerl/internal/logging"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/snake.yaml", "path to config file")
	artifactPath := flag.String("artifact", "artifacts/policy.json", "path to a trained policy")
	replayPath := flag.String("replay", "", "replay a saved trace instead of running the policy")
	tracePath := flag.String("trace", "", "save the played episode to this trace file")
	seed := flag.Uint64("seed", 12345, "random seed for the game")
	delay := flag.Int("delay", 100, "delay between frames in milliseconds")
	noDisplay := flag.Bool("no-display", false, "run without display (just print stats)")
	flag.Parse()

	frames := make(chan env.Snapshot, 1)
	results := make(chan doneMsg, 1)
	frameDelay := time.Duration(*delay) * time.Millisecond

	var last env.Snapshot
	render := func(s env.Snapshot) {
		last = s
		if *noDisplay {
			return
		}
		// Drop the frame if the terminal is still drawing the previous one
		select {
		case frames <- s:
		default:
		}
		time.Sleep(frameDelay)
	}

	var play func() (env.EpisodeStats, error)
	if *replayPath != "" {
		trace, err := logging.LoadTrace(*replayPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Replaying %s (seed %d, %d actions)\n", *replayPath, trace.Seed, len(trace.Actions))
		play = func() (env.EpisodeStats, error) {
			g, err := trace.Playback(env.WithRenderer(render))
			if err != nil {
				return env.EpisodeStats{}, err
			}
			return g.Stats(), nil
		}
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		game, err := cfg.Game()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in config: %v\n", err)
			os.Exit(1)
		}
		artifact, err := logging.LoadArtifact(*artifactPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
			os.Exit(1)
		}
		v, err := artifact.Policy()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading policy: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %s policy (score %d at episode %d), seed %d\n",
			artifact.Kind, artifact.Score, artifact.Episode, *seed)

		evaluator := eval.NewEvaluator(game, 1)
		play = func() (env.EpisodeStats, error) {
			trace, stats, err := evaluator.EpisodeWithTrace(v, *seed, env.WithRenderer(render))
			if err != nil {
				return stats, err
			}
			if *tracePath != "" {
				if err := logging.SaveTrace(*tracePath, trace); err != nil {
					return stats, err
				}
			}
			return stats, nil
		}
	}

	if *noDisplay {
		stats, err := play()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printStats(stats)
		return
	}

	go func() {
		stats, err := play()
		results <- doneMsg{stats: stats, final: last, err: err}
	}()

	p := tea.NewProgram(initialModel(frames, results), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(model); ok && m.done != nil {
		if m.done.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", m.done.err)
			os.Exit(1)
		}
		printStats(m.done.stats)
	}
}

func printStats(stats env.EpisodeStats) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Game Over! Death: %s\n", stats.Death)
	fmt.Printf("  Steps: %d, Score: %d\n", stats.Steps, stats.Score)
	fmt.Printf("  Total reward: %.1f\n", stats.TotalReward)
	fmt.Println("═══════════════════════════════════")
}

type frameMsg env.Snapshot

type doneMsg struct {
	stats env.EpisodeStats
	final env.Snapshot
	err   error
}

type model struct {
	frame   env.Snapshot
	started bool
	done    *doneMsg
	frames  chan env.Snapshot
	results chan doneMsg
}

func initialModel(frames chan env.Snapshot, results chan doneMsg) model {
	return model{frames: frames, results: results}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.frames), waitForDone(m.results))
}

func waitForFrame(frames chan env.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-frames)
	}
}

func waitForDone(results chan doneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-results
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case frameMsg:
		if m.done == nil {
			m.frame = env.Snapshot(msg)
			m.started = true
		}
		return m, waitForFrame(m.frames)
	case doneMsg:
		m.done = &msg
		if msg.final.Width > 0 {
			m.frame = msg.final
			m.started = true
		}
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	if !m.started {
		return "Waiting for the first frame...\n"
	}
	s := m.frame
	var sb strings.Builder

	// Build grid
	grid := make([][]string, s.Height)
	for y := range grid {
		grid[y] = make([]string, s.Width)
		for x := range grid[y] {
			grid[y][x] = " ·"
		}
	}
	if s.Food.X >= 0 && s.Food.X < s.Width && s.Food.Y >= 0 && s.Food.Y < s.Height {
		grid[s.Food.Y][s.Food.X] = "🍎"
	}
	for i := len(s.Snake) - 1; i >= 0; i-- {
		p := s.Snake[i]
		if p.X < 0 || p.X >= s.Width || p.Y < 0 || p.Y >= s.Height {
			continue
		}
		if i == 0 {
			grid[p.Y][p.X] = " " + string(directionHead(s.Dir))
		} else {
			grid[p.Y][p.X] = " █"
		}
	}

	// Draw border and grid
	sb.WriteString("┌" + strings.Repeat("──", s.Width) + "┐\n")
	for _, row := range grid {
		sb.WriteString("│" + strings.Join(row, "") + "│\n")
	}
	sb.WriteString("└" + strings.Repeat("──", s.Width) + "┘\n")

	fmt.Fprintf(&sb, "  Tick: %3d | Score: %d | Length: %d | Heading: %s\n",
		s.Tick, s.Score, len(s.Snake), s.Dir)
	if !s.Alive {
		fmt.Fprintf(&sb, "  💀 DEAD: %s\n", s.Death)
	}
	if m.done != nil {
		if m.done.err != nil {
			fmt.Fprintf(&sb, "  error: %v\n", m.done.err)
		}
		sb.WriteString("\nEpisode finished. Press q to quit.\n")
	} else {
		sb.WriteString("\nPress q to quit.\n")
	}
	return sb.String()
}

func directionHead(dir env.Direction) rune {
	switch dir {
	case env.DirUp:
		return '▲'
	case env.DirRight:
		return '▶'
	case env.DirDown:
		return '▼'
	case env.DirLeft:
		return '◀'
	}
	return 'O'
}
