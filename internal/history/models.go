package history

import "time"

// Run is one pipeline run as stored on disk
type Run struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Target      string    `gorm:"not null;index" json:"target"`
	WindowID    uint32    `gorm:"not null;default:0" json:"window_id"`
	WindowTitle string    `json:"window_title"`
	ProcessName string    `gorm:"index" json:"process_name"`
	PID         int       `json:"pid"`
	Strategy    string    `json:"strategy"`
	Threshold   float64   `gorm:"not null" json:"threshold"`
	RawCount    int       `gorm:"not null;default:0" json:"raw_count"`
	RegionCount int       `gorm:"not null;default:0" json:"region_count"`
	Text        string    `json:"text"`
	ErrorKind   string    `gorm:"index" json:"error_kind,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMs  float64   `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	Attempts    []Attempt `gorm:"constraint:OnDelete:CASCADE" json:"attempts,omitempty"`
}

// Attempt is one capture strategy invocation within a run
type Attempt struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	RunID      uint    `gorm:"not null;index" json:"run_id"`
	Strategy   string  `gorm:"not null" json:"strategy"`
	Number     int     `gorm:"not null" json:"number"`
	Success    bool    `gorm:"not null;default:false" json:"success"`
	Degenerate bool    `gorm:"not null;default:false" json:"degenerate"`
	Reason     string  `json:"reason,omitempty"`
	DurationMs float64 `gorm:"not null;default:0" json:"duration_ms"`
}

// Failed reports whether the run ended in an error
func (r *Run) Failed() bool {
	return r.ErrorKind != ""
}
