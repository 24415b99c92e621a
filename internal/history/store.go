package history

import (
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/types"
)

// Store records every pipeline run in the history database
type Store struct {
	repo *Repository
}

func NewStore(repo *Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) OnRun(report pipeline.Report) {
	if err := s.repo.Save(FromReport(report)); err != nil {
		logger.Error("Failed to record run history", err)
	}
}

// FromReport converts a run report into its stored form
func FromReport(report pipeline.Report) *Run {
	run := &Run{
		Target:      report.Target,
		Strategy:    report.Strategy(),
		Threshold:   report.Threshold,
		RawCount:    report.RawCount,
		RegionCount: len(report.Regions),
		Text:        report.Text(),
		DurationMs:  float64(report.Duration.Microseconds()) / 1000,
		CreatedAt:   report.StartedAt,
	}

	if h := report.Handle; h != nil {
		run.WindowID = h.ID
		run.WindowTitle = h.Title
		run.ProcessName = h.ProcessName
		run.PID = h.PID
	}

	if report.Err != nil {
		run.ErrorKind = types.KindOf(report.Err).String()
		run.Error = report.Err.Error()
	}

	for _, a := range report.Attempts {
		run.Attempts = append(run.Attempts, Attempt{
			Strategy:   a.Strategy,
			Number:     a.Attempt,
			Success:    a.Success,
			Degenerate: a.Degenerate,
			Reason:     a.Reason,
			DurationMs: float64(a.Duration.Microseconds()) / 1000,
		})
	}
	return run
}
