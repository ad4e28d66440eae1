package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

func newTestServer(t *testing.T) (*Server, *tools.Service) {
	t.Helper()
	catalog, err := tools.LoadCatalog()
	require.NoError(t, err)
	svc := tools.NewService(catalog, jobs.NewRegistry(), nil)
	return NewServer(svc, fastq.Finder{}, nil, "test"), svc
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *Response {
	t.Helper()
	params, err := json.Marshal(ToolCallParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return s.HandleRequest(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
}

// decodeTextResult unwraps the content envelope and decodes the JSON
// text payload into target.
func decodeTextResult(t *testing.T, resp *Response, target any) {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	require.Equal(t, "text", result.Content[0].Type)
	require.False(t, result.IsError)
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), target))
}

func TestHandleRequest_Initialize(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.HandleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 7, Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, 7, resp.ID)

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocolVersion, result.ProtocolVersion)
	assert.Equal(t, "biomcp", result.ServerInfo.Name)
	assert.Equal(t, "test", result.ServerInfo.Version)
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.HandleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	names := make(map[string]Tool)
	for _, tool := range result.Tools {
		names[tool.Name] = tool
	}

	for _, want := range []string{
		"run_fastqc", "fastqc_status", "is_fastqc_installed", "install_fastqc",
		"run_star", "run_multiqc", "run_cutadapt", "run_trim_galore",
		"list_jobs", "stop_job", "cleanup_jobs", "find_fastq_files",
	} {
		assert.Contains(t, names, want)
	}

	// Launch schemas carry required fields and the job_id passthrough.
	runFastqc := names["run_fastqc"]
	require.NotNil(t, runFastqc.InputSchema)
	assert.ElementsMatch(t, []string{"fastq_path"}, runFastqc.InputSchema["required"])
	props, ok := runFastqc.InputSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "job_id")
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.HandleRequest(context.Background(), &Request{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
}

func TestHandleRequest_NotificationGetsNoResponse(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.HandleRequest(context.Background(), &Request{JSONRPC: "2.0", Method: "notifications/initialized"})
	assert.Nil(t, resp)
}

func TestToolsCall_UnknownTool(t *testing.T) {
	s, _ := newTestServer(t)

	resp := callTool(t, s, "run_bowtie2", map[string]any{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)
}

func TestToolsCall_MissingRequiredParam(t *testing.T) {
	s, _ := newTestServer(t)

	resp := callTool(t, s, "stop_job", map[string]any{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, InvalidParams, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "job_id")
}

func TestToolsCall_IsInstalledReportsAbsence(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	s, _ := newTestServer(t)

	resp := callTool(t, s, "is_cutadapt_installed", nil)

	var res tools.LocateResult
	decodeTextResult(t, resp, &res)
	assert.Equal(t, "cutadapt", res.Tool)
	assert.False(t, res.Installed)
	assert.NotEmpty(t, res.Diagnostics)
}

func TestToolsCall_JobLifecycle(t *testing.T) {
	binDir := t.TempDir()
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo \"2.7.11b\"; exit 0; fi\nsleep 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "STAR"), []byte(script), 0755))
	t.Setenv("PATH", binDir+":/usr/bin:/bin")

	s, svc := newTestServer(t)

	// Launch
	resp := callTool(t, s, "run_star", map[string]any{
		"genome_dir":   "/ref",
		"read_files_1": "/data/sample.fastq",
		"job_id":       "align-3",
	})
	var launched jobs.LaunchResult
	decodeTextResult(t, resp, &launched)
	assert.Equal(t, "align-3", launched.JobID)

	// Status
	resp = callTool(t, s, "star_status", map[string]any{"job_id": "align-3"})
	var snap jobs.Snapshot
	decodeTextResult(t, resp, &snap)
	assert.Equal(t, "align-3", snap.JobID)
	assert.NotEqual(t, jobs.StatusNotFound, snap.Status)

	// List
	resp = callTool(t, s, "list_jobs", nil)
	var list jobs.ListResult
	decodeTextResult(t, resp, &list)
	assert.Equal(t, 1, list.TotalJobs)

	// Stop
	resp = callTool(t, s, "stop_job", map[string]any{"job_id": "align-3"})
	var stopped jobs.StopResult
	decodeTextResult(t, resp, &stopped)
	assert.Equal(t, jobs.StatusStopped, stopped.Status)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if svc.Status("align-3").Status.Terminal() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, svc.Status("align-3").Status.Terminal())

	// Cleanup everything, stopped jobs included
	resp = callTool(t, s, "cleanup_jobs", map[string]any{"completed_only": false})
	var cleaned jobs.CleanupResult
	decodeTextResult(t, resp, &cleaned)
	assert.Equal(t, 1, cleaned.RemovedJobs)
}

func TestToolsCall_StatusForUnknownJobIsNotFoundRecord(t *testing.T) {
	s, _ := newTestServer(t)

	resp := callTool(t, s, "fastqc_status", map[string]any{"job_id": "ghost"})
	var snap jobs.Snapshot
	decodeTextResult(t, resp, &snap)
	assert.Equal(t, jobs.StatusNotFound, snap.Status)
	assert.Equal(t, "ghost", snap.JobID)
}

func TestToolsCall_FindFastqFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.fastq"), []byte("@r\nA\n+\nF\n"), 0644))

	s, _ := newTestServer(t)

	resp := callTool(t, s, "find_fastq_files", map[string]any{"search_dir": dir})
	var result struct {
		Files []string `json:"files"`
		Count int      `json:"count"`
	}
	decodeTextResult(t, resp, &result)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, filepath.Join(dir, "sample.fastq"), result.Files[0])
}

func TestServe_RequestResponseLoop(t *testing.T) {
	s, _ := newTestServer(t)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// The notification must not produce a response line.
	require.Len(t, lines, 3)

	var first Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.EqualValues(t, 1, first.ID)
	assert.Nil(t, first.Error)

	var last Response
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.JSONEq(t, `"pong"`, string(last.Result))
}

func TestServe_ParseErrorHasNullID(t *testing.T) {
	s, _ := newTestServer(t)

	input := "this is not json\n" +
		`{"jsonrpc":"2.0","id":7,"method":"ping"}`

	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	// The malformed request's id is unknowable, so the response id is null.
	assert.Contains(t, lines[0], `"id":null`)

	var first Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotNil(t, first.Error)
	assert.Equal(t, ParseError, first.Error.Code)

	// The loop resyncs and serves the well-formed request that follows.
	var second Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.EqualValues(t, 7, second.ID)
	assert.JSONEq(t, `"pong"`, string(second.Result))
}

func TestServe_EOFEndsCleanly(t *testing.T) {
	s, _ := newTestServer(t)

	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}
