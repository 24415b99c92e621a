package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/textgrab/internal/capture"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/ocr"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
)

// Locator finds and raises windows
type Locator interface {
	Locate(identifier string) (*types.WindowHandle, error)
	Activate(h *types.WindowHandle) error
	Refresh(h *types.WindowHandle) error
	IsValid(h *types.WindowHandle) bool
}

// Recognizer turns a frame into raw detections
type Recognizer interface {
	Recognize(ctx context.Context, frame *types.CaptureFrame) ([]types.RawDetection, error)
}

// Options holds the collaborators a pipeline runs on
type Options struct {
	Locator    Locator
	Strategies []capture.Strategy
	Recognizer Recognizer
	Recorder   *timing.Recorder
	Observers  []Observer
}

// Pipeline runs locate, capture, recognize and filter for one target at a
// time.
type Pipeline struct {
	locator      Locator
	strategies   []capture.Strategy
	orchestrator *capture.Orchestrator
	recognizer   Recognizer
	recorder     *timing.Recorder

	capture   types.CaptureConfig
	timeouts  types.TimeoutConfig
	threshold float64
	policy    types.BusyPolicy

	slot chan struct{}
	busy atomic.Bool

	mu        sync.RWMutex
	observers []Observer
}

// New wires a pipeline from config and collaborators
func New(cfg *types.Config, opts Options) (*Pipeline, error) {
	if opts.Locator == nil {
		return nil, fmt.Errorf("pipeline needs a locator")
	}
	if opts.Recognizer == nil {
		return nil, fmt.Errorf("pipeline needs a recognizer")
	}
	if len(opts.Strategies) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one capture strategy")
	}

	captureCfg := cfg.GetCaptureConfig()
	timeouts := cfg.GetTimeoutConfig()

	checker, err := capture.NewDegeneracyChecker(captureCfg.Degeneracy)
	if err != nil {
		return nil, err
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = timing.NewRecorder()
	}

	p := &Pipeline{
		locator:      opts.Locator,
		strategies:   opts.Strategies,
		orchestrator: capture.NewOrchestrator(checker, timeouts.Capture, opts.Locator.IsValid),
		recognizer:   opts.Recognizer,
		recorder:     recorder,
		capture:      captureCfg,
		timeouts:     timeouts,
		threshold:    *cfg.GetOCRConfig().Threshold,
		policy:       cfg.GetPipelineConfig().BusyPolicy,
		slot:         make(chan struct{}, 1),
		observers:    opts.Observers,
	}

	logger.Debugf("Pipeline ready: strategies=%v attempts=%d degeneracy=%s policy=%s",
		captureCfg.Strategies, captureCfg.MaxAttemptsPerStrategy, checker, p.policy)
	return p, nil
}

// AddObserver registers o for every later run
func (p *Pipeline) AddObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Busy reports whether a run is in flight
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

// Recorder returns the stage timing recorder
func (p *Pipeline) Recorder() *timing.Recorder {
	return p.recorder
}

// Run locates target, captures it and returns the text regions whose
// confidence is at least threshold, in reading order. A negative threshold
// uses the configured default. Only one run is in flight at a time; a second
// caller waits or gets ErrBusy depending on the busy policy.
func (p *Pipeline) Run(ctx context.Context, target string, threshold float64) ([]types.TextRegion, error) {
	if err := p.enter(ctx); err != nil {
		return nil, err
	}
	defer p.leave()

	if threshold < 0 {
		threshold = p.threshold
	}
	if p.timeouts.Run > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeouts.Run)
		defer cancel()
	}

	report := Report{
		Target:    target,
		Threshold: threshold,
		StartedAt: time.Now(),
		Stages:    make(map[string]time.Duration),
	}

	regions, err := p.run(ctx, &report)

	report.Regions = regions
	report.Err = err
	report.Duration = time.Since(report.StartedAt)
	p.recorder.Record(timing.StageTotal, ms(report.Duration))
	if err := p.recorder.Flush(); err != nil {
		logger.Debugf("Could not persist timings: %v", err)
	}

	if err != nil {
		logger.Event(logger.LevelWarn, "capture run failed", map[string]interface{}{
			"stage":       timing.StageTotal,
			"target":      target,
			"kind":        types.KindOf(err).String(),
			"duration_ms": ms(report.Duration),
			"error":       err.Error(),
		})
	} else {
		logger.Event(logger.LevelInfo, "capture run finished", map[string]interface{}{
			"stage":       timing.StageTotal,
			"target":      target,
			"strategy":    report.Strategy(),
			"regions":     len(regions),
			"duration_ms": ms(report.Duration),
		})
	}

	p.notify(report)
	return regions, err
}

func (p *Pipeline) run(ctx context.Context, report *Report) ([]types.TextRegion, error) {
	start := time.Now()
	h, err := p.locate(ctx, report.Target)
	p.stage(report, timing.StageLocate, start, "")
	if err != nil {
		return nil, err
	}
	report.Handle = h

	if p.capture.Activate && !h.IsRegion() {
		start = time.Now()
		if err := p.locator.Activate(h); err != nil {
			logger.Warnf("Could not activate %s, capturing anyway: %v", h, err)
		} else {
			if p.capture.ActivationDelay > 0 {
				select {
				case <-time.After(p.capture.ActivationDelay):
				case <-ctx.Done():
				}
			}
			// activation may have restored a minimized window
			if err := p.locator.Refresh(h); err != nil {
				logger.Debugf("Could not refresh %s after activation: %v", h, err)
			}
		}
		p.stage(report, timing.StageActivation, start, "")
	}

	start = time.Now()
	frame, attempts, err := p.orchestrator.Acquire(ctx, h, p.strategies, p.capture.MaxAttemptsPerStrategy)
	report.Attempts = attempts
	strategy := ""
	if frame != nil {
		strategy = frame.Strategy
	}
	p.stage(report, timing.StageCapture, start, strategy)
	if err != nil {
		return nil, err
	}
	report.Frame = frame

	start = time.Now()
	raw, err := p.recognizer.Recognize(ctx, frame)
	p.stage(report, timing.StageOCR, start, strategy)
	if err != nil {
		return nil, err
	}
	report.RawCount = len(raw)

	start = time.Now()
	regions := ocr.Filter(raw, report.Threshold)
	p.stage(report, timing.StageFilter, start, strategy)

	logger.Debugf("Kept %d of %d detections at threshold %.2f", len(regions), len(raw), report.Threshold)
	return regions, nil
}

// locate bounds the locator call by the locate timeout
func (p *Pipeline) locate(ctx context.Context, target string) (*types.WindowHandle, error) {
	if p.timeouts.Locate > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeouts.Locate)
		defer cancel()
	}

	type result struct {
		h   *types.WindowHandle
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: types.NewPipelineError(types.KindNotFound, "locate", fmt.Errorf("%v", r), target)}
			}
		}()
		h, err := p.locator.Locate(target)
		done <- result{h: h, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.h == nil {
			return nil, types.NewPipelineError(types.KindNotFound, "locate", nil, target)
		}
		if r.err != nil && types.KindOf(r.err) == 0 {
			return nil, types.NewPipelineError(types.KindNotFound, "locate", r.err, target)
		}
		return r.h, r.err
	case <-ctx.Done():
		return nil, types.NewPipelineError(types.KindTimeout, "locate", ctx.Err(), target)
	}
}

func (p *Pipeline) enter(ctx context.Context) error {
	if p.policy == types.BusyDrop {
		select {
		case p.slot <- struct{}{}:
		default:
			logger.Debugf("Capture trigger dropped, a run is in flight")
			return types.NewPipelineError(types.KindBusy, "run", nil, "")
		}
	} else {
		select {
		case p.slot <- struct{}{}:
		case <-ctx.Done():
			return types.NewPipelineError(types.KindTimeout, "run", ctx.Err(), "waiting for the previous run")
		}
	}
	p.busy.Store(true)
	return nil
}

func (p *Pipeline) leave() {
	p.busy.Store(false)
	<-p.slot
}

func (p *Pipeline) stage(report *Report, stage string, start time.Time, strategy string) {
	d := time.Since(start)
	report.Stages[stage] = d
	p.recorder.Record(stage, ms(d))

	fields := map[string]interface{}{
		"stage":       stage,
		"target":      report.Target,
		"duration_ms": ms(d),
	}
	if strategy != "" {
		fields["strategy"] = strategy
	}
	logger.Event(logger.LevelDebug, "stage finished", fields)
}

func (p *Pipeline) notify(report Report) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Run observer panicked: %v", nil, r)
				}
			}()
			o.OnRun(report)
		}()
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
