package autocapture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
)

// Runner runs one capture
type Runner interface {
	Run(ctx context.Context, target string, threshold float64) ([]types.TextRegion, error)
}

// Service captures a fixed target on an interval
type Service struct {
	runner   Runner
	target   string
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	inFlight atomic.Bool
	wg       sync.WaitGroup
}

func NewService(runner Runner, cfg types.AutoCaptureConfig) (*Service, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("auto capture needs a target")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("auto capture interval must be positive, got %v", cfg.Interval)
	}
	return &Service{
		runner:   runner,
		target:   cfg.Target,
		interval: cfg.Interval,
		stopChan: make(chan struct{}),
	}, nil
}

// Start blocks until ctx is done or Stop is called, then waits for the
// run in flight
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("auto capture is already running")
	}
	defer s.running.Store(false)
	defer s.wg.Wait()

	logger.Infof("Starting auto capture of %q every %v", s.target, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Auto capture stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			logger.Debug("Auto capture stopped")
			return nil

		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

func (s *Service) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Debugf("Auto capture tick dropped: previous capture of %q still running", s.target)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)

		regions, err := s.runner.Run(ctx, s.target, -1)
		switch {
		case errors.Is(err, types.ErrBusy):
			logger.Debugf("Auto capture tick dropped: %v", err)
		case err != nil:
			logger.Warnf("Auto capture of %q failed: %v", s.target, err)
		default:
			logger.Debugf("Auto capture of %q found %d regions", s.target, len(regions))
		}
	}()
}
