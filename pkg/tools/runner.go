package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// RunResult is the outcome of a synchronous subprocess run.
type RunResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
}

// RunOptions control subprocess execution.
type RunOptions struct {
	// Dir is the working directory. Empty means inherit.
	Dir string

	// Env is appended to the inherited environment (KEY=VALUE entries).
	Env []string
}

// Run executes argv synchronously and captures its output.
//
// The command line is a slice of discrete tokens; nothing passes through a
// shell. A non-zero exit is a normal result carried in ReturnCode. Spawn
// failures (missing executable, permission denied) are returned as errors
// so callers can distinguish "never ran" from "ran and failed".
func Run(ctx context.Context, argv []string, opts RunOptions) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{}, errors.New("empty command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	err := cmd.Run()
	res := RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ReturnCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The process ran and exited non-zero; that is data, not an
			// error at this layer.
			return res, nil
		}
		return RunResult{}, err
	}
	return res, nil
}
