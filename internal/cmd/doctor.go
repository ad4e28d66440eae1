package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bioopenmcp/biomcp/internal/observability"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks for every wrapped tool and suggest fixes.

Examples:
  biomcp doctor          # Probe all tools
  biomcp doctor fastqc   # Probe one tool`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	log := observability.CLILogger
	log.Info("=== biomcp doctor ===")
	log.Info("")

	catalog, err := tools.LoadCatalog()
	if err != nil {
		return err
	}

	names := catalog.Names()
	if len(args) == 1 {
		if _, err := catalog.Lookup(args[0]); err != nil {
			return withExitCode(ExitUsageError, err)
		}
		names = []string{args[0]}
	}

	totalChecks := len(names) + 1
	checkNum := 1
	allChecks := true

	log.Info(fmt.Sprintf("[%d/%d] Checking environment... ✅ %s/%s", checkNum, totalChecks, runtime.GOOS, runtime.GOARCH),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))
	checkNum++

	for _, name := range names {
		res, err := catalog.Locate(cmd.Context(), name)
		if err != nil {
			return err
		}

		if res.Installed {
			log.Info(fmt.Sprintf("[%d/%d] Checking %s... ✅ %s", checkNum, totalChecks, name, res.Version),
				zap.String("path", res.Path))
		} else {
			log.Warn(fmt.Sprintf("[%d/%d] Checking %s... ❌ not found", checkNum, totalChecks, name),
				zap.String("diagnostics", res.Diagnostics))
			printInstallHelp(catalog, name)
			allChecks = false
		}

		if res.Java != nil && !res.Java.Installed {
			log.Warn(fmt.Sprintf("       %s needs Java, and no runtime was found", name))
			allChecks = false
		}
		checkNum++
	}

	log.Info("")
	if allChecks {
		log.Info("✅ All checks passed! Your biomcp installation is healthy.")
	} else {
		log.Warn("⚠️  Some checks failed. Review the output above for details.")
	}
	log.Info("")
	log.Info("=== End Diagnostics ===")

	if !allChecks {
		return withExitCode(ExitToolMissing, fmt.Errorf("one or more tools are missing"))
	}
	return nil
}

func printInstallHelp(catalog *tools.Catalog, name string) {
	def, err := catalog.Lookup(name)
	if err != nil {
		return
	}
	for _, suggestion := range def.Suggestions {
		observability.CLILogger.Info("       " + suggestion)
	}
	observability.CLILogger.Info(fmt.Sprintf("       or run: biomcp tool install %s", name))
}
