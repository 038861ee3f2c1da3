package env

import "math"

// DeathReason indicates how the snake died
type DeathReason int

const (
	DeathNone  DeathReason = iota
	DeathWall              // left the grid
	DeathSelf              // hit own body
	DeathStall             // no food for too long
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathWall:
		return "wall"
	case DeathSelf:
		return "self"
	case DeathStall:
		return "stall"
	default:
		return "unknown"
	}
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Score       int         // food eaten
	Steps       int         // transitions taken
	TotalReward float64     // sum of shaped rewards
	Death       DeathReason // how the episode ended
	Seed        uint64      // seed of the game
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	ScoreMean   float64
	ScoreStd    float64
	ScoreMax    int
	StepsMean   float64
	RewardMean  float64
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	n := len(episodes)
	agg := AggregatedStats{
		DeathCounts: make(map[DeathReason]int),
		NumEpisodes: n,
	}
	if n == 0 {
		return agg
	}

	var scoreSum, stepsSum, rewardSum float64
	for _, ep := range episodes {
		scoreSum += float64(ep.Score)
		stepsSum += float64(ep.Steps)
		rewardSum += ep.TotalReward
		if ep.Score > agg.ScoreMax {
			agg.ScoreMax = ep.Score
		}
		agg.DeathCounts[ep.Death]++
	}

	nf := float64(n)
	agg.ScoreMean = scoreSum / nf
	agg.StepsMean = stepsSum / nf
	agg.RewardMean = rewardSum / nf

	var variance float64
	for _, ep := range episodes {
		diff := float64(ep.Score) - agg.ScoreMean
		variance += diff * diff
	}
	agg.ScoreStd = math.Sqrt(variance / nf)

	return agg
}

// Transition is one (s, a, r, s', terminal) tuple produced by Step
type Transition struct {
	Obs      Observation
	Action   Action
	Reward   float64
	Next     Observation
	Terminal bool
}
