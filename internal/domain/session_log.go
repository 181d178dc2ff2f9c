package domain

import "errors"

const (
	TaskRepair      = "repair"
	TaskAgriculture = "agriculture"
	TaskGeneral     = "general"
)

var (
	ErrMissingTaskType = errors.New("task type required")
	ErrMissingSummary  = errors.New("summary required")
)

// SessionLog is a completed field session as persisted by the storage
// collaborator. ID is assigned on append.
type SessionLog struct {
	ID                    string `json:"id,omitempty"`
	Timestamp             string `json:"timestamp"`
	DurationSeconds       int    `json:"durationSeconds"`
	TaskType              string `json:"taskType"`
	Summary               string `json:"summary"`
	CriticalInterruptions int    `json:"criticalInterruptions"`
}

// Validate checks the fields a client must supply before a log is stored.
func (s SessionLog) Validate() error {
	if s.TaskType == "" {
		return ErrMissingTaskType
	}
	if s.Summary == "" {
		return ErrMissingSummary
	}
	return nil
}
