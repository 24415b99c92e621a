package main

import (
	"fmt"

	"github.com/dooshek/textgrab/internal/capture"
	"github.com/dooshek/textgrab/internal/clipboard"
	"github.com/dooshek/textgrab/internal/config"
	"github.com/dooshek/textgrab/internal/fileops"
	"github.com/dooshek/textgrab/internal/history"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/notification"
	"github.com/dooshek/textgrab/internal/ocr"
	"github.com/dooshek/textgrab/internal/pipeline"
	"github.com/dooshek/textgrab/internal/screenshot"
	"github.com/dooshek/textgrab/internal/state"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/dooshek/textgrab/internal/windowdetect"
)

// app is everything a command needs to run captures
type app struct {
	cfg      *types.Config
	fileOps  *fileops.DefaultFileOps
	locator  *windowdetect.Locator
	pipeline *pipeline.Pipeline
	notifier notification.Notifier
	db       *history.DB
}

// loadConfig reads the config file, falling back to defaults, then applies
// TEXTGRAB_* overrides and validates the result
func loadConfig() (*types.Config, *fileops.DefaultFileOps, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, nil, err
	}
	if err := fileOps.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadConfigFrom(fileOps)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		logger.Debug("No configuration found, using defaults")
		cfg = types.DefaultConfig()
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	state.Init(cfg)
	return cfg, fileOps, nil
}

type appOptions struct {
	notify    bool
	clipboard bool
}

func newApp(cfg *types.Config, fileOps *fileops.DefaultFileOps, opts appOptions) (*app, error) {
	locator, err := windowdetect.New()
	if err != nil {
		return nil, err
	}

	strategies, err := capture.NewStrategies(cfg.GetCaptureConfig().Strategies, capture.NewScreenGrabber(), capture.NewWindowGrabber(""))
	if err != nil {
		return nil, err
	}

	// a missing engine still yields a pipeline; runs then fail with
	// RecognitionUnavailable
	var engine ocr.Engine
	if tess, err := ocr.NewTesseractEngine(cfg.GetOCRConfig()); err != nil {
		logger.Warnf("OCR engine unavailable: %v", err)
	} else {
		engine = tess
	}

	a := &app{
		cfg:      cfg,
		fileOps:  fileOps,
		locator:  locator,
		notifier: notification.NewSilent(),
	}

	var observers []pipeline.Observer

	if shots := cfg.GetScreenshotConfig(); shots.Enabled {
		if shots.Dir == "" {
			shots.Dir = fileOps.GetScreenshotsDir()
		}
		saver, err := screenshot.NewSaver(shots)
		if err != nil {
			return nil, err
		}
		observers = append(observers, saver)
	}

	if cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = fileOps.GetHistoryDBPath()
		}
		db, err := openHistory(path)
		if err != nil {
			return nil, err
		}
		a.db = db
		observers = append(observers, history.NewStore(history.NewRepository(db)))
	}

	if opts.clipboard && cfg.Output.CopyToClipboard {
		observers = append(observers, clipboard.Observer{})
	}

	if opts.notify && cfg.Output.Notify {
		a.notifier = notification.New()
		observers = append(observers, notification.NewObserver(a.notifier))
	}

	a.pipeline, err = pipeline.New(cfg, pipeline.Options{
		Locator:    locator,
		Strategies: strategies,
		Recognizer: ocr.NewRecognizer(engine, cfg.GetTimeoutConfig().Recognition),
		Recorder:   timing.NewPersistentRecorder(fileOps.GetTimingsPath()),
		Observers:  observers,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func openHistory(path string) (*history.DB, error) {
	db, err := history.Connect(path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Debugf("Closing history: %v", err)
		}
	}
}
