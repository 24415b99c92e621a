package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

var errCaptureTimeout = errors.New("capture timed out")

// osGuard serializes every call into the OS capture APIs in the process.
// A call abandoned after its timeout keeps the guard until it returns.
var osGuard sync.Mutex

// Orchestrator tries strategies in order until one yields a usable frame.
type Orchestrator struct {
	checker *DegeneracyChecker
	timeout time.Duration
	isValid func(*types.WindowHandle) bool
}

// NewOrchestrator creates an orchestrator. isValid is consulted before every
// attempt; a nil isValid accepts every handle.
func NewOrchestrator(checker *DegeneracyChecker, timeout time.Duration, isValid func(*types.WindowHandle) bool) *Orchestrator {
	if isValid == nil {
		isValid = func(*types.WindowHandle) bool { return true }
	}
	return &Orchestrator{
		checker: checker,
		timeout: timeout,
		isValid: isValid,
	}
}

// Acquire returns the first non-degenerate frame. A degenerate frame moves on
// to the next strategy right away. A capture error is retried up to
// maxAttempts times per strategy.
func (o *Orchestrator) Acquire(ctx context.Context, h *types.WindowHandle, strategies []Strategy, maxAttempts int) (*types.CaptureFrame, []types.CaptureAttempt, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var attempts []types.CaptureAttempt
	for _, s := range strategies {
		for n := 1; n <= maxAttempts; n++ {
			if err := ctx.Err(); err != nil {
				pe := types.NewPipelineError(types.KindTimeout, "capture", err, "run deadline reached")
				pe.Attempts = attempts
				return nil, attempts, pe
			}

			start := time.Now()
			attempt := types.CaptureAttempt{Strategy: s.Name(), Attempt: n}

			if !o.isValid(h) {
				attempt.Reason = "window no longer exists"
				attempts = append(attempts, attempt)
				logger.Debugf("Capture attempt %s", attempt.String())
				continue
			}

			frame, err := o.captureOnce(ctx, s, h)
			attempt.Duration = time.Since(start)

			if err != nil {
				attempt.Reason = err.Error()
				attempts = append(attempts, attempt)
				logger.Debugf("Capture attempt %s", attempt.String())
				continue
			}

			if degenerate, value := o.checker.Check(frame); degenerate {
				attempt.Degenerate = true
				attempt.Reason = fmt.Sprintf("degenerate frame (%s = %.3f)", o.checker.Statistic, value)
				attempts = append(attempts, attempt)
				logger.Debugf("Capture attempt %s", attempt.String())
				break
			}

			attempt.Success = true
			attempts = append(attempts, attempt)
			if len(attempts) > 1 {
				logger.Debugf("Capture fell back to %s: %s", s.Name(), summarize(attempts))
			}
			return frame, attempts, nil
		}
	}

	pe := types.NewPipelineError(types.KindAllStrategiesFailed, "capture", nil,
		fmt.Sprintf("%d attempts on %s", len(attempts), h))
	pe.Attempts = attempts
	return nil, attempts, pe
}

// captureOnce runs one strategy call under the OS guard with the per-attempt
// timeout. A call that panics or overruns is reported as a failure.
func (o *Orchestrator) captureOnce(ctx context.Context, s Strategy, h *types.WindowHandle) (*types.CaptureFrame, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type result struct {
		frame *types.CaptureFrame
		err   error
	}
	done := make(chan result, 1)

	go func() {
		osGuard.Lock()
		defer osGuard.Unlock()
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("capture panicked: %v", r)}
			}
		}()

		if ctx.Err() != nil {
			done <- result{err: errCaptureTimeout}
			return
		}
		frame, err := s.Capture(ctx, h)
		done <- result{frame: frame, err: err}
	}()

	select {
	case r := <-done:
		return r.frame, r.err
	case <-ctx.Done():
		return nil, errCaptureTimeout
	}
}

func summarize(attempts []types.CaptureAttempt) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " -> ")
}
