package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dooshek/textgrab/internal/fileops"
	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "textgrab.yaml"
	envPrefix      = "TEXTGRAB_"
)

// LoadConfig reads textgrab.yaml from the default config directory. A
// missing file returns nil, nil.
func LoadConfig() (*types.Config, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return LoadConfigFrom(fileOps)
}

func LoadConfigFrom(fileOps fileops.FileOps) (*types.Config, error) {
	if err := fileOps.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := fileOps.LoadConfig(configFilename)
	if err != nil {
		if errors.Is(err, fileops.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := types.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func SaveConfig(config *types.Config) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return SaveConfigTo(fileOps, config)
}

// SaveConfigTo merges config into the existing file, if any, and writes it back
func SaveConfigTo(fileOps fileops.FileOps, config *types.Config) error {
	existingConfig, err := LoadConfigFrom(fileOps)
	if err != nil {
		logger.Warnf("Failed to load existing config: %v", err)
	} else if existingConfig != nil {
		mergeConfigs(existingConfig, config)
		config = existingConfig
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// mergeConfigs copies the settings the wizard owns from sourceConfig into
// targetConfig when they are set
func mergeConfigs(targetConfig, sourceConfig *types.Config) {
	if sourceConfig.CaptureKey.Key != "" {
		targetConfig.CaptureKey = sourceConfig.CaptureKey
	}
	if sourceConfig.RegionKey.Key != "" {
		targetConfig.RegionKey = sourceConfig.RegionKey
	}
	if sourceConfig.DefaultTarget != "" {
		targetConfig.DefaultTarget = sourceConfig.DefaultTarget
	}
	if sourceConfig.DefaultRegion != "" {
		targetConfig.DefaultRegion = sourceConfig.DefaultRegion
	}
	if sourceConfig.OCR.Threshold != nil {
		targetConfig.OCR.Threshold = sourceConfig.OCR.Threshold
	}
	if sourceConfig.OCR.Language != "" {
		targetConfig.OCR.Language = sourceConfig.OCR.Language
	}
}

// ApplyEnv overrides config keys from TEXTGRAB_* variables, loading a .env
// file from the working directory first when one exists
func ApplyEnv(config *types.Config) error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		logger.Debug("Loaded .env")
	}
	return applyEnv(config, os.LookupEnv)
}

func applyEnv(config *types.Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DEFAULT_TARGET"); ok {
		config.DefaultTarget = v
	}
	if v, ok := get("DEFAULT_REGION"); ok {
		config.DefaultRegion = v
	}
	if v, ok := get("OCR_LANGUAGE"); ok {
		config.OCR.Language = v
	}
	if v, ok := get("OCR_LEVEL"); ok {
		config.OCR.Level = v
	}
	if v, ok := get("BUSY_POLICY"); ok {
		config.Pipeline.BusyPolicy = types.BusyPolicy(v)
	}
	if v, ok := get("STRATEGIES"); ok {
		config.Capture.Strategies = strings.Split(v, ",")
		for i := range config.Capture.Strategies {
			config.Capture.Strategies[i] = strings.TrimSpace(config.Capture.Strategies[i])
		}
	}

	if v, ok := get("OCR_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sOCR_THRESHOLD: %w", envPrefix, err)
		}
		config.OCR.Threshold = &f
	}

	bools := map[string]*bool{
		"SCREENSHOTS": &config.Screenshots.Enabled,
		"HISTORY":     &config.History.Enabled,
		"CLIPBOARD":   &config.Output.CopyToClipboard,
		"NOTIFY":      &config.Output.Notify,
		"DBUS":        &config.Output.DBus,
		"ACTIVATE":    &config.Capture.Activate,
	}
	for key, dst := range bools {
		v, ok := get(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = b
	}

	return nil
}
