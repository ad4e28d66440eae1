package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bioopenmcp/biomcp/internal/config"
	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

var jobsServerURL string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background jobs on a running server",
	Long: `Query and manage jobs tracked by a biomcp server started with
'biomcp serve --http'. Job records live in the server process, so these
commands talk to its REST API.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Show status for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

var jobsStopCmd = &cobra.Command{
	Use:   "stop <job_id>",
	Short: "Stop a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStop,
}

var jobsGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove finished job records",
	RunE:  runJobsGC,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsStopCmd)
	jobsCmd.AddCommand(jobsGCCmd)

	jobsCmd.PersistentFlags().StringVar(&jobsServerURL, "server", "", "Server base URL (default from config)")
	jobsListCmd.Flags().Bool("json", false, "Output as JSON")
	jobsStatusCmd.Flags().Bool("json", false, "Output as JSON")
	jobsGCCmd.Flags().Bool("all", false, "Remove every record, including running jobs")
}

func serverBaseURL() string {
	if jobsServerURL != "" {
		return jobsServerURL
	}
	if cfg := config.GetConfig(); cfg != nil {
		return fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	return "http://localhost:8080"
}

// apiCall performs one REST request and decodes the JSON response into
// target. Error envelopes from the server become CLI errors.
func apiCall(ctx context.Context, method, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, serverBaseURL()+path, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reach server at %s: %w", serverBaseURL(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var envelope apperrors.HTTPErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&envelope); decErr == nil && envelope.Error.Code != "" {
			err := fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
			if envelope.Error.Code == apperrors.CodeNotFound {
				return withExitCode(ExitJobNotFound, err)
			}
			return err
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	var list jobs.ListResult
	if err := apiCall(cmd.Context(), http.MethodGet, "/api/v1/jobs", &list); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(list)
	}

	ids := make([]string, 0, len(list.Jobs))
	for id := range list.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTOOL\tSTATUS\tSTARTED\tRESULT")
	for _, id := range ids {
		snap := list.Jobs[id]
		started := ""
		if !snap.StartTime.IsZero() {
			started = snap.StartTime.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", snap.JobID, snap.Tool, snap.Status, started, snap.ResultPath)
	}
	return w.Flush()
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	var snap jobs.Snapshot
	path := "/api/v1/jobs/" + url.PathEscape(args[0])
	if err := apiCall(cmd.Context(), http.MethodGet, path, &snap); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(snap)
	}

	fmt.Fprintf(os.Stdout, "job:    %s\n", snap.JobID)
	fmt.Fprintf(os.Stdout, "tool:   %s\n", snap.Tool)
	fmt.Fprintf(os.Stdout, "status: %s\n", snap.Status)
	if snap.RuntimeSeconds != nil {
		fmt.Fprintf(os.Stdout, "runtime: %.1fs\n", *snap.RuntimeSeconds)
	}
	if snap.ResultPath != "" {
		fmt.Fprintf(os.Stdout, "result: %s\n", snap.ResultPath)
	}
	if snap.Error != "" {
		fmt.Fprintf(os.Stdout, "error:  %s\n", snap.Error)
	}
	return nil
}

func runJobsStop(cmd *cobra.Command, args []string) error {
	var res jobs.StopResult
	path := "/api/v1/jobs/" + url.PathEscape(args[0]) + "/stop"
	if err := apiCall(cmd.Context(), http.MethodPost, path, &res); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s: %s\n", res.JobID, res.Message)
	return nil
}

func runJobsGC(cmd *cobra.Command, args []string) error {
	path := "/api/v1/jobs/cleanup"
	if all, _ := cmd.Flags().GetBool("all"); all {
		path += "?completed_only=false"
	}

	var res jobs.CleanupResult
	if err := apiCall(cmd.Context(), http.MethodPost, path, &res); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "removed %d, %d remaining\n", res.RemovedJobs, res.RemainingJobs)
	return nil
}
