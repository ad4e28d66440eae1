package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// InstallResult reports an installation attempt.
//
// Installation failures are never fatal to the caller: every attempted
// strategy's output is aggregated into Output for diagnosis, and on total
// failure Suggestions carries manual remediation steps.
type InstallResult struct {
	Tool        string   `json:"tool"`
	Installed   bool     `json:"installed"`
	Attempted   bool     `json:"attempted"`
	Method      string   `json:"method,omitempty"`
	Output      string   `json:"output"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Install tries the catalog's installation strategies for a tool in
// priority order, stopping at the first that leaves the tool locatable.
//
// Idempotent: when the tool is already installed the call is a no-op
// reporting installed=true, attempted=false. Strategies whose package
// manager is absent are skipped, with a note in Output.
func (c *Catalog) Install(ctx context.Context, name string) (InstallResult, error) {
	def, err := c.Lookup(name)
	if err != nil {
		return InstallResult{}, err
	}

	res := InstallResult{Tool: normalizeToolName(name)}

	located, err := c.Locate(ctx, name)
	if err != nil {
		return InstallResult{}, err
	}
	if located.Installed {
		res.Installed = true
		res.Output = fmt.Sprintf("%s already installed at %s", res.Tool, located.Path)
		return res, nil
	}

	var output strings.Builder
	for _, strategy := range def.Install {
		managerPath, lookErr := exec.LookPath(strategy.Manager)
		if lookErr != nil {
			fmt.Fprintf(&output, "--- %s: skipped (not on PATH)\n", strategy.Manager)
			continue
		}

		res.Attempted = true
		argv := append([]string{managerPath}, strategy.Args...)
		fmt.Fprintf(&output, "--- %s %s\n", strategy.Manager, strings.Join(strategy.Args, " "))

		runRes, runErr := Run(ctx, argv, RunOptions{})
		if runErr != nil {
			fmt.Fprintf(&output, "spawn failed: %v\n", runErr)
			continue
		}
		output.WriteString(runRes.Stdout)
		if runRes.Stderr != "" {
			output.WriteString(runRes.Stderr)
		}

		// Success is "the tool is now locatable", not the manager's exit
		// code alone; some managers exit zero on partial installs.
		relocated, locErr := c.Locate(ctx, name)
		if locErr == nil && relocated.Installed {
			res.Installed = true
			res.Method = strategy.Manager
			res.Output = output.String()
			return res, nil
		}
		fmt.Fprintf(&output, "%s finished (exit %d) but %s is still not locatable\n",
			strategy.Manager, runRes.ReturnCode, res.Tool)
	}

	res.Output = output.String()
	if !res.Installed {
		res.Suggestions = append(res.Suggestions, def.Suggestions...)
		if res.Attempted && len(res.Suggestions) == 0 {
			res.Suggestions = []string{fmt.Sprintf("install %s manually and ensure it is on PATH", res.Tool)}
		}
	}
	return res, nil
}
