package timing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dooshek/textgrab/internal/logger"
)

// Stage names recorded by the pipeline.
const (
	StageLocate     = "locate"
	StageActivation = "activation"
	StageCapture    = "capture"
	StageOCR        = "ocr"
	StageFilter     = "filter"
	StageTotal      = "total"
)

// StageSummary holds aggregated timings for one stage
type StageSummary struct {
	Count     int     `json:"count"`
	TotalMs   float64 `json:"total_ms"`
	AverageMs float64 `json:"average_ms"`
}

type stageTotals struct {
	Count   int     `json:"count"`
	TotalMs float64 `json:"total_ms"`
}

// Recorder aggregates stage durations. It is safe for concurrent use.
type Recorder struct {
	stages   map[string]*stageTotals
	filePath string
	mu       sync.Mutex
}

// NewRecorder creates an in-memory recorder
func NewRecorder() *Recorder {
	return &Recorder{stages: make(map[string]*stageTotals)}
}

// NewPersistentRecorder creates a recorder backed by a JSON file and loads
// whatever totals it already holds.
func NewPersistentRecorder(filePath string) *Recorder {
	r := &Recorder{
		stages:   make(map[string]*stageTotals),
		filePath: filePath,
	}

	if err := r.load(); err != nil {
		logger.Debugf("Could not load timings (will start fresh): %v", err)
	}

	return r
}

// Record adds one measurement for stage
func (r *Recorder) Record(stage string, durationMs float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stages[stage]
	if !ok {
		s = &stageTotals{}
		r.stages[stage] = s
	}
	s.Count++
	s.TotalMs += durationMs
}

// Time starts a measurement; calling the returned func records it.
func (r *Recorder) Time(stage string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		r.Record(stage, float64(d.Microseconds())/1000)
		return d
	}
}

// Summary returns a snapshot of every stage
func (r *Recorder) Summary() map[string]StageSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]StageSummary, len(r.stages))
	for name, s := range r.stages {
		sum := StageSummary{Count: s.Count, TotalMs: s.TotalMs}
		if s.Count > 0 {
			sum.AverageMs = s.TotalMs / float64(s.Count)
		}
		out[name] = sum
	}
	return out
}

// SummaryJSON returns the summary as a JSON string (for D-Bus)
func (r *Recorder) SummaryJSON() (string, error) {
	data, err := json.Marshal(r.Summary())
	if err != nil {
		return "", fmt.Errorf("failed to marshal timings to JSON: %w", err)
	}
	return string(data), nil
}

// Reset clears all stages and persists the empty state
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stages = make(map[string]*stageTotals)

	if r.filePath == "" {
		return nil
	}
	if err := r.save(); err != nil {
		return fmt.Errorf("failed to save reset timings: %w", err)
	}
	return nil
}

// Flush writes the totals to disk when the recorder is persistent
func (r *Recorder) Flush() error {
	if r.filePath == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save()
}

func (r *Recorder) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("Timings file not found, starting fresh: %s", r.filePath)
			return nil
		}
		return fmt.Errorf("failed to read timings file: %w", err)
	}

	stages := make(map[string]*stageTotals)
	if err := json.Unmarshal(data, &stages); err != nil {
		return fmt.Errorf("failed to unmarshal timings: %w", err)
	}
	// a file holding null decodes to a nil map, and null entries to nil totals
	if stages == nil {
		stages = make(map[string]*stageTotals)
	}
	for name, s := range stages {
		if s == nil {
			delete(stages, name)
		}
	}
	r.stages = stages

	logger.Debugf("Loaded timings from %s", r.filePath)
	return nil
}

// save must be called with mu held
func (r *Recorder) save() error {
	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create timings directory: %w", err)
	}

	data, err := json.MarshalIndent(r.stages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timings: %w", err)
	}

	tempFile := r.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp timings file: %w", err)
	}

	if err := os.Rename(tempFile, r.filePath); err != nil {
		return fmt.Errorf("failed to rename temp timings file: %w", err)
	}

	return nil
}
