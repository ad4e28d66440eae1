package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bioopenmcp/biomcp/internal/config"
	"github.com/bioopenmcp/biomcp/internal/observability"
	"github.com/bioopenmcp/biomcp/pkg/fastq"
)

var findFastqDirs []string

var findFastqCmd = &cobra.Command{
	Use:   "find-fastq [name]",
	Short: "Find FASTQ files in the search directories",
	Long: `Find FASTQ files (.fastq, .fq, .fastq.gz, .fq.gz) in the configured
search directories. With a name argument only files whose name contains
it are listed.

Examples:
  biomcp find-fastq                      # Every FASTQ file
  biomcp find-fastq sample_R1            # Files matching a name
  biomcp find-fastq --dir /data/seq      # Search a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFindFastq,
}

func init() {
	rootCmd.AddCommand(findFastqCmd)
	findFastqCmd.Flags().StringSliceVar(&findFastqDirs, "dir", nil, "Directory to search (repeatable, default from config)")
	findFastqCmd.Flags().Bool("json", false, "Output as JSON")
}

func runFindFastq(cmd *cobra.Command, args []string) error {
	dirs := findFastqDirs
	if len(dirs) == 0 {
		if cfg := config.GetConfig(); cfg != nil && len(cfg.Tools.SearchDirs) > 0 {
			dirs = cfg.Tools.SearchDirs
		} else {
			dirs = fastq.DefaultSearchDirs()
		}
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	finder := fastq.Finder{SearchDirs: dirs}
	files, err := finder.Find(cmd.Context(), name)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(map[string]any{"files": files, "count": len(files)})
	}

	if len(files) == 0 {
		observability.CLILogger.Warn("no FASTQ files found")
		return nil
	}
	for _, f := range files {
		fmt.Fprintln(os.Stdout, f)
	}
	return nil
}
