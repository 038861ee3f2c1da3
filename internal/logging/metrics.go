package logging

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"snakerl/internal/env"
	"snakerl/internal/train"
)

// EpisodeRow is one training episode as written to every output
type EpisodeRow struct {
	Trainer     string  `parquet:"trainer,dict" json:"trainer"`
	Worker      int32   `parquet:"worker" json:"worker"`
	Episode     int32   `parquet:"episode" json:"episode"`
	Epsilon     float64 `parquet:"epsilon" json:"epsilon"`
	Score       int32   `parquet:"score" json:"score"`
	BestScore   int32   `parquet:"best_score" json:"best_score"`
	Steps       int32   `parquet:"steps" json:"steps"`
	TotalReward float64 `parquet:"total_reward" json:"total_reward"`
	Death       string  `parquet:"death,dict" json:"death"`
	Seed        uint64  `parquet:"seed" json:"seed"`
}

var csvHeader = []string{
	"trainer", "worker", "episode", "epsilon", "score", "best_score",
	"steps", "total_reward", "death", "seed",
}

// Logger writes every finished episode to CSV, JSONL and Parquet files.
// Empty paths disable the matching output. It is safe for concurrent use.
type Logger struct {
	mu sync.Mutex

	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
	pqFile    *os.File
	pqWriter  *parquet.GenericWriter[EpisodeRow]
}

// NewLogger creates the output files, along with their directories
func NewLogger(csvPath, jsonPath, parquetPath string) (*Logger, error) {
	l := &Logger{}
	var err error

	if csvPath != "" {
		if l.csvFile, err = create(csvPath); err != nil {
			l.Close()
			return nil, err
		}
		l.csvWriter = csv.NewWriter(l.csvFile)
		if err := l.csvWriter.Write(csvHeader); err != nil {
			l.Close()
			return nil, err
		}
	}
	if jsonPath != "" {
		if l.jsonFile, err = create(jsonPath); err != nil {
			l.Close()
			return nil, err
		}
	}
	if parquetPath != "" {
		if l.pqFile, err = create(parquetPath); err != nil {
			l.Close()
			return nil, err
		}
		l.pqWriter = parquet.NewGenericWriter[EpisodeRow](
			l.pqFile,
			parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		)
		l.pqWriter.SetKeyValueMetadata("schema", "episode_v1")
	}
	return l, nil
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

// NewEpisodeRow flattens a training record
func NewEpisodeRow(rec train.EpisodeRecord) EpisodeRow {
	return EpisodeRow{
		Trainer:     rec.Trainer,
		Worker:      int32(rec.Worker),
		Episode:     int32(rec.Episode),
		Epsilon:     rec.Epsilon,
		Score:       int32(rec.Stats.Score),
		BestScore:   int32(rec.BestScore),
		Steps:       int32(rec.Stats.Steps),
		TotalReward: rec.Stats.TotalReward,
		Death:       rec.Stats.Death.String(),
		Seed:        rec.Stats.Seed,
	}
}

// RecordEpisode implements train.Recorder
func (l *Logger) RecordEpisode(rec train.EpisodeRecord) error {
	row := NewEpisodeRow(rec)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.csvWriter != nil {
		l.csvWriter.Write([]string{
			row.Trainer,
			strconv.Itoa(int(row.Worker)),
			strconv.Itoa(int(row.Episode)),
			strconv.FormatFloat(row.Epsilon, 'f', 4, 64),
			strconv.Itoa(int(row.Score)),
			strconv.Itoa(int(row.BestScore)),
			strconv.Itoa(int(row.Steps)),
			strconv.FormatFloat(row.TotalReward, 'f', 2, 64),
			row.Death,
			strconv.FormatUint(row.Seed, 10),
		})
		l.csvWriter.Flush()
		if err := l.csvWriter.Error(); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	if l.jsonFile != nil {
		line, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("jsonl: %w", err)
		}
	}
	if l.pqWriter != nil {
		if _, err := l.pqWriter.Write([]EpisodeRow{row}); err != nil {
			return fmt.Errorf("parquet: %w", err)
		}
	}
	return nil
}

// Close flushes and closes every output
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		errs = append(errs, l.csvWriter.Error())
		l.csvWriter = nil
	}
	if l.csvFile != nil {
		errs = append(errs, l.csvFile.Close())
		l.csvFile = nil
	}
	if l.jsonFile != nil {
		errs = append(errs, l.jsonFile.Close())
		l.jsonFile = nil
	}
	if l.pqWriter != nil {
		errs = append(errs, l.pqWriter.Close())
		l.pqWriter = nil
	}
	if l.pqFile != nil {
		errs = append(errs, l.pqFile.Close())
		l.pqFile = nil
	}
	return errors.Join(errs...)
}

// ReadEpisodes loads every row of a Parquet episode log
func ReadEpisodes(path string) ([]EpisodeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[EpisodeRow](pf)
	defer reader.Close()

	rows := make([]EpisodeRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return rows[:n], nil
}

// LogBenchmark logs the aggregated greedy evaluation
func LogBenchmark(logger *slog.Logger, agg env.AggregatedStats) {
	logger.Info("benchmark",
		"episodes", agg.NumEpisodes,
		"score_mean", agg.ScoreMean,
		"score_std", agg.ScoreStd,
		"score_max", agg.ScoreMax,
		"steps_mean", agg.StepsMean,
		"reward_mean", agg.RewardMean,
		"deaths_wall", agg.DeathCounts[env.DeathWall],
		"deaths_self", agg.DeathCounts[env.DeathSelf],
		"deaths_stall", agg.DeathCounts[env.DeathStall],
	)
}
