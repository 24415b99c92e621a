package types

import (
	"fmt"
	"time"
)

// KeyCombo interface for types that can be printed as a key combination
type KeyCombo interface {
	HasCtrl() bool
	HasShift() bool
	HasAlt() bool
	HasSuper() bool
	GetKey() string
}

type KeyBinding struct {
	Key   string `yaml:"key"`   // The actual key (e.g., "a", "b", "1", etc.)
	Ctrl  bool   `yaml:"ctrl"`  // Control key modifier
	Shift bool   `yaml:"shift"` // Shift key modifier
	Alt   bool   `yaml:"alt"`   // Alt key modifier
	Super bool   `yaml:"super"` // Super (Windows/Command) key modifier
}

func (kb KeyBinding) HasCtrl() bool  { return kb.Ctrl }
func (kb KeyBinding) HasShift() bool { return kb.Shift }
func (kb KeyBinding) HasAlt() bool   { return kb.Alt }
func (kb KeyBinding) HasSuper() bool { return kb.Super }
func (kb KeyBinding) GetKey() string { return kb.Key }

// BusyPolicy decides what a trigger does while another run is in flight.
type BusyPolicy string

const (
	BusyQueue BusyPolicy = "queue"
	BusyDrop  BusyPolicy = "drop"
)

// Capture strategy names.
const (
	StrategyHandle = "handle"
	StrategyRegion = "region"
)

// Degeneracy statistics.
const (
	StatMeanLuma        = "mean_luma"
	StatDarkFraction    = "dark_fraction"
	StatUniformFraction = "uniform_fraction"
)

// DegeneracyConfig selects the blank-frame test. A nil Threshold picks the
// statistic's default; an explicit 0 is kept.
type DegeneracyConfig struct {
	Statistic string   `yaml:"statistic"`
	Threshold *float64 `yaml:"threshold,omitempty"`
}

type CaptureConfig struct {
	Strategies             []string         `yaml:"strategies"`
	MaxAttemptsPerStrategy int              `yaml:"max_attempts_per_strategy"`
	Activate               bool             `yaml:"activate"`
	ActivationDelay        time.Duration    `yaml:"activation_delay"`
	Degeneracy             DegeneracyConfig `yaml:"degeneracy"`
}

type OCRConfig struct {
	Language  string   `yaml:"language"`
	Level     string   `yaml:"level"`              // "word" or "line"
	Threshold *float64 `yaml:"threshold,omitempty"` // default confidence threshold for triggers, nil means 0.7
	Grayscale bool     `yaml:"grayscale"`
	MinHeight int      `yaml:"min_height"` // frames shorter than this are upscaled before recognition
}

type TimeoutConfig struct {
	Locate      time.Duration `yaml:"locate"`
	Capture     time.Duration `yaml:"capture"`
	Recognition time.Duration `yaml:"recognition"`
	Run         time.Duration `yaml:"run"`
}

type PipelineConfig struct {
	BusyPolicy BusyPolicy `yaml:"busy_policy"`
}

type ScreenshotConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	Annotate bool   `yaml:"annotate"`
	BoxColor string `yaml:"box_color"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type AutoCaptureConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Target   string        `yaml:"target"`
	Interval time.Duration `yaml:"interval"`
}

type OutputConfig struct {
	CopyToClipboard bool `yaml:"copy_to_clipboard"`
	Notify          bool `yaml:"notify"`
	DBus            bool `yaml:"dbus"`
}

type Config struct {
	CaptureKey    KeyBinding        `yaml:"capture_key"`
	RegionKey     KeyBinding        `yaml:"region_key"`
	DefaultTarget string            `yaml:"default_target"`
	DefaultRegion string            `yaml:"default_region"` // "WxH", centered on the primary display
	Capture       CaptureConfig     `yaml:"capture"`
	OCR           OCRConfig         `yaml:"ocr"`
	Timeouts      TimeoutConfig     `yaml:"timeouts"`
	Pipeline      PipelineConfig    `yaml:"pipeline"`
	Screenshots   ScreenshotConfig  `yaml:"screenshots"`
	History       HistoryConfig     `yaml:"history"`
	AutoCapture   AutoCaptureConfig `yaml:"auto_capture"`
	Output        OutputConfig      `yaml:"output"`
}

// Float64 returns a pointer to v, for optional config values
func Float64(v float64) *float64 { return &v }

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		CaptureKey:    KeyBinding{Key: "g", Ctrl: true, Shift: true},
		RegionKey:     KeyBinding{Key: "r", Ctrl: true, Shift: true},
		DefaultRegion: "600x600",
		Capture: CaptureConfig{
			Activate: true,
		},
		Screenshots: ScreenshotConfig{Annotate: true},
		Output:      OutputConfig{Notify: true},
	}
}

// GetCaptureConfig returns capture configuration with defaults
func (c *Config) GetCaptureConfig() CaptureConfig {
	config := c.Capture

	if len(config.Strategies) == 0 {
		config.Strategies = []string{StrategyHandle, StrategyRegion}
	}
	if config.MaxAttemptsPerStrategy <= 0 {
		config.MaxAttemptsPerStrategy = 2
	}
	if config.ActivationDelay == 0 && config.Activate {
		config.ActivationDelay = 300 * time.Millisecond
	}
	if config.Degeneracy.Statistic == "" {
		config.Degeneracy.Statistic = StatMeanLuma
	}
	if config.Degeneracy.Threshold == nil {
		switch config.Degeneracy.Statistic {
		case StatMeanLuma:
			config.Degeneracy.Threshold = Float64(10)
		default:
			config.Degeneracy.Threshold = Float64(0.98)
		}
	}

	return config
}

// GetOCRConfig returns OCR configuration with defaults
func (c *Config) GetOCRConfig() OCRConfig {
	config := c.OCR

	if config.Language == "" {
		config.Language = "eng"
	}
	if config.Level == "" {
		config.Level = "line"
	}
	if config.Threshold == nil {
		config.Threshold = Float64(0.7)
	}
	if config.MinHeight == 0 {
		config.MinHeight = 300
	}

	return config
}

// GetTimeoutConfig returns stage bounds with defaults
func (c *Config) GetTimeoutConfig() TimeoutConfig {
	config := c.Timeouts

	if config.Locate == 0 {
		config.Locate = 3 * time.Second
	}
	if config.Capture == 0 {
		config.Capture = 5 * time.Second
	}
	if config.Recognition == 0 {
		config.Recognition = 30 * time.Second
	}

	return config
}

func (c *Config) GetPipelineConfig() PipelineConfig {
	config := c.Pipeline
	if config.BusyPolicy == "" {
		config.BusyPolicy = BusyQueue
	}
	return config
}

func (c *Config) GetAutoCaptureConfig() AutoCaptureConfig {
	config := c.AutoCapture
	if config.Interval == 0 {
		config.Interval = 30 * time.Second
	}
	if config.Target == "" {
		config.Target = c.DefaultTarget
	}
	return config
}

func (c *Config) GetScreenshotConfig() ScreenshotConfig {
	config := c.Screenshots
	if config.BoxColor == "" {
		config.BoxColor = "#ff0000"
	}
	return config
}

// Validate rejects values the pipeline cannot act on.
func (c *Config) Validate() error {
	capture := c.GetCaptureConfig()
	for _, s := range capture.Strategies {
		if s != StrategyHandle && s != StrategyRegion {
			return fmt.Errorf("unknown capture strategy %q", s)
		}
	}

	degenerate := *capture.Degeneracy.Threshold
	switch capture.Degeneracy.Statistic {
	case StatMeanLuma:
		if degenerate < 0 || degenerate > 255 {
			return fmt.Errorf("mean_luma threshold must be within [0,255], got %v", degenerate)
		}
	case StatDarkFraction, StatUniformFraction:
		if degenerate <= 0 || degenerate > 1 {
			return fmt.Errorf("%s threshold must be within (0,1], got %v", capture.Degeneracy.Statistic, degenerate)
		}
	default:
		return fmt.Errorf("unknown degeneracy statistic %q", capture.Degeneracy.Statistic)
	}

	switch c.GetPipelineConfig().BusyPolicy {
	case BusyQueue, BusyDrop:
	default:
		return fmt.Errorf("unknown busy policy %q", c.Pipeline.BusyPolicy)
	}

	if t := *c.GetOCRConfig().Threshold; t < 0 || t > 1 {
		return fmt.Errorf("ocr threshold must be within [0,1], got %v", t)
	}

	switch c.GetOCRConfig().Level {
	case "word", "line":
	default:
		return fmt.Errorf("unknown ocr level %q", c.OCR.Level)
	}

	return nil
}
