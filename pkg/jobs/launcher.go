package jobs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Spec describes one tool invocation to launch.
//
// Argv is the complete command line with the resolved executable at
// Argv[0]. Paths are passed as discrete argument tokens; nothing is ever
// interpolated into a shell string.
type Spec struct {
	// Tool is the logical tool name (fastqc, star, ...).
	Tool string

	// Argv is the full command line to execute.
	Argv []string

	// Slug is a parameter-derived fragment (typically the input filename
	// stem) used when generating a job id. Optional.
	Slug string

	// Params is the resolved parameter snapshot stored on the record.
	Params any

	// ResultPath is the expected output artifact per the tool's
	// convention. When set, the launcher verifies it exists after a zero
	// exit before marking the job completed.
	ResultPath string

	// Dir is the working directory for the process. Optional.
	Dir string

	// Env is extra environment entries appended to the inherited
	// environment (KEY=VALUE). Optional.
	Env []string
}

// Launcher creates job records and drives one goroutine per launched job.
type Launcher struct {
	registry *Registry
}

// NewLauncher creates a launcher bound to a registry.
func NewLauncher(registry *Registry) *Launcher {
	return &Launcher{registry: registry}
}

// Registry returns the registry this launcher writes to.
func (l *Launcher) Registry() *Registry {
	return l.registry
}

// Launch validates spec, inserts a starting record, and spawns the
// process. It returns as soon as the process has started; a goroutine
// waits for the exit and finalizes the record.
//
// Spawn failures (missing executable, permission denied) are returned
// synchronously and leave no record behind, so "job never started" is
// always distinguishable from "job started and failed". There is no
// execution timeout; Stop is the only cancellation mechanism.
func (l *Launcher) Launch(spec Spec, jobID string) (LaunchResult, error) {
	if strings.TrimSpace(spec.Tool) == "" {
		return LaunchResult{}, fmt.Errorf("tool name is required")
	}
	if len(spec.Argv) == 0 || strings.TrimSpace(spec.Argv[0]) == "" {
		return LaunchResult{}, fmt.Errorf("command is required")
	}

	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		jobID = generateJobID(spec.Tool, spec.Slug)
	}

	rec := &Record{
		JobID:     jobID,
		Tool:      spec.Tool,
		Status:    StatusStarting,
		Command:   append([]string(nil), spec.Argv...),
		Params:    spec.Params,
		StartTime: time.Now().UTC(),
	}
	if err := l.registry.create(rec); err != nil {
		return LaunchResult{}, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	if err := cmd.Start(); err != nil {
		l.registry.remove(jobID)
		return LaunchResult{}, fmt.Errorf("start %s: %w", spec.Tool, err)
	}

	// Publish the process handle. If Stop already marked the record
	// stopped in the window since create, kill the fresh process now.
	if stopped := l.attachProcess(rec, cmd.Process); stopped {
		_ = cmd.Process.Kill()
	}

	go l.wait(rec, spec, cmd, &stdout, &stderr)

	return LaunchResult{
		JobID:   jobID,
		Status:  "started",
		Message: fmt.Sprintf("%s started in background; poll status with job_id %s", spec.Tool, jobID),
	}, nil
}

// attachProcess sets the process handle on the record and reports whether
// the record is already terminal or its slot was reclaimed.
func (l *Launcher) attachProcess(rec *Record, proc procHandle) bool {
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()

	if !l.registry.owns(rec) {
		return true
	}
	if rec.Status.Terminal() {
		return true
	}
	rec.proc = proc
	return false
}

// wait blocks for the process exit and finalizes the record. All writes
// go through rec, never a fresh map lookup: the job id may by now name a
// re-launched run whose record this waiter must not touch.
func (l *Launcher) wait(rec *Record, spec Spec, cmd *exec.Cmd, stdout, stderr *bytes.Buffer) {
	l.registry.markRunning(rec)

	waitErr := cmd.Wait()

	outStr := stdout.String()
	errStr := stderr.String()

	var returnCode *int
	if cmd.ProcessState != nil {
		code := cmd.ProcessState.ExitCode()
		returnCode = &code
	}

	switch {
	case waitErr != nil:
		msg := strings.TrimSpace(errStr)
		if msg == "" {
			msg = waitErr.Error()
		}
		l.registry.finalize(rec, StatusFailed, outStr, errStr, returnCode, "", fmt.Sprintf("%s exited with an error: %s", spec.Tool, msg))
	case spec.ResultPath != "" && !fileExists(spec.ResultPath):
		// Some tools exit zero but fail to produce the artifact (FastQC
		// does this when Java is misconfigured). Treat that as failure.
		l.registry.finalize(rec, StatusFailed, outStr, errStr, returnCode, "",
			fmt.Sprintf("%s did not create expected output %s", spec.Tool, spec.ResultPath))
	default:
		l.registry.finalize(rec, StatusCompleted, outStr, errStr, returnCode, spec.ResultPath, "")
	}
}

// generateJobID builds a debuggable id of the form
// <tool>_<slug>_<unix-timestamp>, falling back to a uuid fragment when no
// slug can be derived from the parameters.
func generateJobID(tool, slug string) string {
	slug = sanitizeSlug(slug)
	if slug == "" {
		slug = uuid.New().String()[:8]
	}
	return fmt.Sprintf("%s_%s_%d", tool, slug, time.Now().Unix())
}

func sanitizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
