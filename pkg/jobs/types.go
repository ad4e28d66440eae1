package jobs

import "time"

// Status is the lifecycle state of a tracked job.
//
// Transitions are forward-only: starting -> running -> {completed, failed,
// stopped}. StatusNotFound is a query-result sentinel and is never stored
// on a record.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
	StatusNotFound  Status = "not_found"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// Record tracks one external tool invocation through its lifecycle.
//
// The registry exclusively owns all records; callers only ever see copies.
type Record struct {
	JobID  string `json:"job_id"`
	Tool   string `json:"tool,omitempty"`
	Status Status `json:"status"`

	// Command is the exact argv the job was launched with, kept for
	// diagnosability. Never a shell string.
	Command []string `json:"command,omitempty"`

	// Params is the resolved tool-specific parameter snapshot, immutable
	// after creation.
	Params any `json:"tool_parameters,omitempty"`

	StartTime time.Time  `json:"start_time,omitzero"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Populated only after the underlying process exits.
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ReturnCode *int   `json:"return_code,omitempty"`

	// ResultPath is set iff Status == completed.
	ResultPath string `json:"result_path,omitempty"`

	// Error is set iff Status == failed.
	Error string `json:"error,omitempty"`

	// proc is the handle used by Stop while the job is in flight.
	// Cleared on finalize. Never serialized.
	proc procHandle
}

// Snapshot is the externally visible view of a record.
//
// RuntimeSeconds is derived from EndTime - StartTime at query time so it
// can never go stale; it is nil until the job is terminal.
type Snapshot struct {
	Record
	RuntimeSeconds *float64 `json:"runtime_seconds,omitempty"`
}

// LaunchResult is returned by Launch once the job record exists and the
// process has spawned.
type LaunchResult struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StopResult is returned by Stop.
type StopResult struct {
	JobID   string `json:"job_id"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// CleanupResult summarizes a cleanup pass.
type CleanupResult struct {
	RemovedJobs   int      `json:"removed_jobs"`
	RemainingJobs int      `json:"remaining_jobs"`
	RemovedJobIDs []string `json:"removed_job_ids"`
}

// ListResult is the full registry snapshot returned by List.
type ListResult struct {
	TotalJobs int                 `json:"total_jobs"`
	Jobs      map[string]Snapshot `json:"jobs"`
}

func (r *Record) snapshot() Snapshot {
	snap := Snapshot{Record: *r}
	snap.proc = nil
	if r.EndTime != nil {
		secs := r.EndTime.Sub(r.StartTime).Seconds()
		snap.RuntimeSeconds = &secs
	}
	return snap
}
