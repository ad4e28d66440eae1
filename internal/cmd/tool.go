package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bioopenmcp/biomcp/internal/config"
	"github.com/bioopenmcp/biomcp/internal/observability"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Inspect, install, and run the wrapped tools",
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools biomcp knows about",
	RunE:  runToolList,
}

var toolLocateCmd = &cobra.Command{
	Use:   "locate <tool>",
	Short: "Check whether a tool is installed",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolLocate,
}

var toolInstallCmd = &cobra.Command{
	Use:   "install <tool>",
	Short: "Install a tool via the available package managers",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolInstall,
}

var toolRunCmd = &cobra.Command{
	Use:   "run <tool> <params-json>",
	Short: "Run a tool and wait for it to finish",
	Long: `Run a tool with parameters given as a JSON object, matching the
MCP tool arguments. The command waits for the run to finish and prints
the result path on success.

Example:
  biomcp tool run fastqc '{"fastq_path": "/data/sample.fastq.gz"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runToolRun,
}

func init() {
	rootCmd.AddCommand(toolCmd)
	toolCmd.AddCommand(toolListCmd)
	toolCmd.AddCommand(toolLocateCmd)
	toolCmd.AddCommand(toolInstallCmd)
	toolCmd.AddCommand(toolRunCmd)

	toolLocateCmd.Flags().Bool("json", false, "Output as JSON")
	toolInstallCmd.Flags().Bool("json", false, "Output as JSON")
}

func runToolList(cmd *cobra.Command, args []string) error {
	catalog, err := tools.LoadCatalog()
	if err != nil {
		return err
	}
	for _, name := range catalog.Names() {
		fmt.Fprintln(os.Stdout, name)
	}
	return nil
}

func runToolLocate(cmd *cobra.Command, args []string) error {
	catalog, err := tools.LoadCatalog()
	if err != nil {
		return err
	}

	res, err := catalog.Locate(cmd.Context(), args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(res)
	}

	if !res.Installed {
		observability.CLILogger.Warn(fmt.Sprintf("%s: not installed", res.Tool))
		observability.CLILogger.Info(res.Diagnostics)
		return withExitCode(ExitToolMissing, fmt.Errorf("%s is not installed", res.Tool))
	}
	observability.CLILogger.Info(fmt.Sprintf("%s: %s (%s)", res.Tool, res.Version, res.Path))
	if res.Java != nil {
		if res.Java.Installed {
			observability.CLILogger.Info(fmt.Sprintf("java: %s (%s)", res.Java.Version, res.Java.Path))
		} else {
			observability.CLILogger.Warn("java: not found, " + res.Tool + " will not run")
		}
	}
	return nil
}

func runToolInstall(cmd *cobra.Command, args []string) error {
	catalog, err := tools.LoadCatalog()
	if err != nil {
		return err
	}

	res, err := catalog.Install(cmd.Context(), args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(res)
	}

	if res.Installed {
		if res.Attempted {
			observability.CLILogger.Info(fmt.Sprintf("%s installed via %s", res.Tool, res.Method))
		} else {
			observability.CLILogger.Info(fmt.Sprintf("%s is already installed", res.Tool))
		}
		return nil
	}

	observability.CLILogger.Warn(fmt.Sprintf("could not install %s", res.Tool))
	if res.Output != "" {
		observability.CLILogger.Info(res.Output)
	}
	for _, suggestion := range res.Suggestions {
		observability.CLILogger.Info("  " + suggestion)
	}
	return withExitCode(ExitToolMissing, fmt.Errorf("installation of %s failed", res.Tool))
}

func runToolRun(cmd *cobra.Command, args []string) error {
	toolName, rawParams := args[0], args[1]

	params := map[string]any{}
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		return withExitCode(ExitUsageError, fmt.Errorf("parameters must be a JSON object: %w", err))
	}

	svc, err := newService(observability.CLILogger)
	if err != nil {
		return err
	}

	if cfg := config.GetConfig(); cfg != nil && cfg.Tools.AutoInstall {
		if _, err := svc.Install(cmd.Context(), toolName); err != nil {
			return withExitCode(ExitUsageError, err)
		}
	}

	res, err := svc.LaunchFromArgs(cmd.Context(), toolName, params)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	observability.CLILogger.Info(res.Message)

	// The registry is in-process, so the CLI waits for the job instead
	// of handing out an id that dies with this process.
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			_ = svc.Stop(res.JobID)
			return cmd.Context().Err()
		case <-ticker.C:
		}

		snap := svc.Status(res.JobID)
		if !snap.Status.Terminal() {
			continue
		}

		switch snap.Status {
		case jobs.StatusCompleted:
			fmt.Fprintln(os.Stdout, snap.ResultPath)
			return nil
		default:
			if snap.Stderr != "" {
				observability.CLILogger.Warn(snap.Stderr)
			}
			return withExitCode(ExitGeneralError, fmt.Errorf("job %s %s: %s", snap.JobID, snap.Status, snap.Error))
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
