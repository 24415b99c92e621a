package state

import (
	"sync"

	"github.com/dooshek/textgrab/internal/types"
)

var (
	once     sync.Once
	instance *AppState
)

type AppState struct {
	Config *types.Config
}

func Init(cfg *types.Config) {
	once.Do(func() {
		instance = &AppState{
			Config: cfg,
		}
	})
}

func Get() *AppState {
	if instance == nil {
		panic("AppState not initialized")
	}
	return instance
}

func (s *AppState) GetDefaultTarget() string {
	return s.Config.DefaultTarget
}

// GetRegionTarget is the identifier region_key captures
func (s *AppState) GetRegionTarget() string {
	return "center:" + s.Config.DefaultRegion
}

func (s *AppState) GetThreshold() float64 {
	return *s.Config.GetOCRConfig().Threshold
}
