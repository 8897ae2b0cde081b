// Package model contains simple struct definitions shared across packages.
package model

import "time"

// Status describes the processing lifecycle of a single file. Transitions are
// monotonic within a run: Pending -> Queued -> Processing -> terminal.
type Status int

const (
	StatusPending Status = iota
	StatusQueued
	StatusProcessing
	StatusSucceeded
	StatusFailed
)

// String renders the status the way the CSV export shows it.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// FileTask is one row in the status store, keyed by Path.
type FileTask struct {
	Path      string     `json:"path"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	WorkerID  string     `json:"workerId,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// ProcessingResult is the transient outcome of one file's pipeline run. It is
// pushed onto the dispatcher's result channel and folded into the summary.
type ProcessingResult struct {
	Path    string
	Success bool
	NewPath string
	Err     error
}
