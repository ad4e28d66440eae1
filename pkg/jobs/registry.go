// Package jobs implements the in-memory job registry and launcher used to
// track external bioinformatics tool invocations.
//
// The registry coordinates four concerns:
//   - Launcher: spawns one process per job and drives its state machine
//   - Status/List: read-only snapshots, computed under the registry lock
//   - Stop: best-effort termination of an in-flight process
//   - Cleanup: explicit record removal, by terminal filter or unconditional
//
// State is in-memory only; records do not survive a process restart, and
// callers must opt in to reclaiming memory via Cleanup.
package jobs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateJob reports a launch against a job id that is still active.
var ErrDuplicateJob = errors.New("job already active")

// procHandle abstracts the spawned process so Stop can be exercised in
// tests without a real child process.
type procHandle interface {
	Kill() error
}

// Registry is the single owner of all job records.
//
// All reads and writes go through the registry mutex; snapshots returned
// to callers are copies and never alias registry-owned records.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// create inserts a new record in the starting state.
//
// A duplicate job id with a non-terminal status is rejected. A terminal
// record under the same id is overwritten: the old run has ended and can
// no longer change, so its slot is reusable once the caller re-launches.
func (r *Registry) create(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[rec.JobID]; ok && !existing.Status.Terminal() {
		return fmt.Errorf("%w: %q has status %s", ErrDuplicateJob, rec.JobID, existing.Status)
	}
	r.records[rec.JobID] = rec
	return nil
}

// remove deletes a record regardless of state. Used by Launch to undo the
// starting record when the process never spawns.
func (r *Registry) remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, jobID)
}

// owns reports whether the slot for rec's job id still holds rec. A
// terminal id can be reclaimed by a re-launch and Cleanup removes records
// outright, so a waiter goroutine resolving through the map alone could
// mutate a newer run's record.
func (r *Registry) owns(rec *Record) bool {
	return r.records[rec.JobID] == rec
}

// markRunning transitions starting -> running. A no-op if the record was
// already stopped (the stop-before-running race) or its slot was reclaimed.
func (r *Registry) markRunning(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.owns(rec) || rec.Status != StatusStarting {
		return
	}
	rec.Status = StatusRunning
}

// finalize records the outcome of the process. Terminal states never
// transition again: if Stop won the race, the stopped outcome stands and
// only the captured output fields are filled in.
func (r *Registry) finalize(rec *Record, status Status, stdout, stderr string, returnCode *int, resultPath, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.owns(rec) {
		return
	}

	rec.proc = nil
	rec.Stdout = stdout
	rec.Stderr = stderr
	rec.ReturnCode = returnCode

	if rec.Status.Terminal() {
		return
	}

	rec.Status = status
	now := time.Now().UTC()
	rec.EndTime = &now
	if status == StatusCompleted {
		rec.ResultPath = resultPath
	}
	if status == StatusFailed {
		rec.Error = errMsg
	}
}

// Status returns a snapshot for jobID. An unknown id yields a not_found
// snapshot rather than an error.
func (r *Registry) Status(jobID string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[jobID]
	if !ok {
		return Snapshot{Record: Record{JobID: jobID, Status: StatusNotFound}}
	}
	return rec.snapshot()
}

// List returns a full snapshot of the registry. No pagination; acceptable
// at interactive scale.
func (r *Registry) List() ListResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := ListResult{
		TotalJobs: len(r.records),
		Jobs:      make(map[string]Snapshot, len(r.records)),
	}
	for id, rec := range r.records {
		out.Jobs[id] = rec.snapshot()
	}
	return out
}

// Stop signals termination to the job's process and marks it stopped.
//
// Stopping is best-effort and forceful (SIGKILL): none of the wrapped
// tools have a graceful-shutdown protocol. Calling Stop on a terminal job
// returns its existing status unchanged; an unknown id yields not_found.
func (r *Registry) Stop(jobID string) StopResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[jobID]
	if !ok {
		return StopResult{JobID: jobID, Status: StatusNotFound, Message: "no such job"}
	}
	if rec.Status.Terminal() {
		return StopResult{JobID: jobID, Status: rec.Status, Message: "job already finished"}
	}

	if rec.proc != nil {
		// Best-effort: the waiter goroutine observes the exit and fills
		// in captured output afterwards.
		_ = rec.proc.Kill()
	}

	rec.Status = StatusStopped
	now := time.Now().UTC()
	rec.EndTime = &now

	return StopResult{JobID: jobID, Status: StatusStopped, Message: "termination signal sent"}
}

// Cleanup removes job records and returns what was reclaimed.
//
// With completedOnly, only terminal records (completed, failed, stopped)
// are removed; starting and running jobs are never touched. Without it,
// every record is removed unconditionally. Cleanup never signals the
// underlying processes: removing a running job's record orphans the
// process, which keeps running until it exits on its own.
func (r *Registry) Cleanup(completedOnly bool) CleanupResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]string, 0, len(r.records))
	for id, rec := range r.records {
		if completedOnly && !rec.Status.Terminal() {
			continue
		}
		delete(r.records, id)
		removed = append(removed, id)
	}
	sort.Strings(removed)

	return CleanupResult{
		RemovedJobs:   len(removed),
		RemainingJobs: len(r.records),
		RemovedJobIDs: removed,
	}
}
