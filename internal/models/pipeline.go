package models

import "time"

// RunState is the pipeline lifecycle state. Transitions only move forward:
// RUNNING -> STOPPING -> STOPPED.
type RunState string

const (
	RunStateRunning  RunState = "running"
	RunStateStopping RunState = "stopping"
	RunStateStopped  RunState = "stopped"
)

// String returns the string representation of RunState.
func (rs RunState) String() string {
	return string(rs)
}

// StopReason records why a run left the RUNNING state.
type StopReason string

const (
	StopReasonEndOfStream StopReason = "end_of_stream"
	StopReasonKeypress    StopReason = "keypress"
	StopReasonCancelled   StopReason = "cancelled"
	StopReasonError       StopReason = "error"
)

// PipelineStats is a read-only snapshot of the run published to the API.
type PipelineStats struct {
	State           RunState   `json:"state"`
	StopReason      StopReason `json:"stop_reason,omitempty"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	FrameID         int64      `json:"frame_id"`
	FramesProcessed int64      `json:"frames_processed"`
	FramesSkipped   int64      `json:"frames_skipped"`
	DetectorErrors  int64      `json:"detector_errors"`
	ActiveTracks    int        `json:"active_tracks"`
	LostTracks      int        `json:"lost_tracks"`
	TotalCount      int64      `json:"total_count"`
	FPS             float64    `json:"fps"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
}
