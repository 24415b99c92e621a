package windowdetect

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo describes the process behind a window
type ProcessInfo struct {
	PID        int     `json:"pid"`
	Name       string  `json:"name"`
	Exe        string  `json:"exe"`
	Status     string  `json:"status"`
	MemoryRSS  uint64  `json:"memory_rss"`
	CPUPercent float64 `json:"cpu_percent"`
}

type gopsutilLookup struct{}

// NewProcessLookup returns a lookup backed by gopsutil
func NewProcessLookup() ProcessLookup {
	return gopsutilLookup{}
}

func (gopsutilLookup) Name(pid int) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return p.Name()
}

func (gopsutilLookup) Info(pid int) (*ProcessInfo, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}

	info := &ProcessInfo{PID: pid}
	if info.Name, err = p.Name(); err != nil {
		return nil, fmt.Errorf("process %d name: %w", pid, err)
	}

	// the remaining fields are best effort; permission errors leave them empty
	info.Exe, _ = p.Exe()
	if st, err := p.Status(); err == nil {
		info.Status = strings.Join(st, ",")
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		info.MemoryRSS = mem.RSS
	}
	info.CPUPercent, _ = p.CPUPercent()

	return info, nil
}
