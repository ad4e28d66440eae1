// Package cmd implements the biomcp command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bioopenmcp/biomcp/internal/config"
	"github.com/bioopenmcp/biomcp/internal/observability"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

// VersionInfo carries build metadata injected at link time.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var versionInfo = VersionInfo{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata before Execute runs.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	flagLogLevel string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "biomcp",
	Short: "MCP server for bioinformatics tools",
	Long: `biomcp exposes bioinformatics command-line tools (FastQC, STAR,
MultiQC, cutadapt, Trim Galore) to MCP clients and over HTTP.

Long-running tool invocations are tracked as background jobs with
stable job ids; clients poll for status and collect result paths once
a job completes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfig != "" {
			if err := os.Setenv("BIOMCP_CONFIG", flagConfig); err != nil {
				return err
			}
		}

		overrides := map[string]any{}
		if flagLogLevel != "" {
			overrides["logging"] = map[string]any{"level": flagLogLevel}
		}
		cfg, err := config.Load(cmd.Context(), overrides)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		if err := observability.InitCLILogger(cfg.Logging.Level); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.Version = versionInfo.Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)",
		versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	if err := rootCmd.Execute(); err != nil {
		observability.CLILogger.Error(err.Error())
		return exitCodeFor(err)
	}
	return ExitOK
}

// newService builds the shared tool service from the loaded config.
func newService(logger *zap.Logger) (*tools.Service, error) {
	catalog, err := tools.LoadCatalog()
	if err != nil {
		return nil, err
	}
	return tools.NewService(catalog, jobs.NewRegistry(), logger), nil
}
