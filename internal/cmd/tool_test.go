package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunToolList(t *testing.T) {
	err := runToolList(toolListCmd, nil)
	assert.NoError(t, err)
}

func TestRunToolLocate_NotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	toolLocateCmd.SetContext(context.Background())
	err := runToolLocate(toolLocateCmd, []string{"cutadapt"})
	require.Error(t, err)
	assert.Equal(t, ExitToolMissing, exitCodeFor(err))
}

func TestRunToolLocate_Installed(t *testing.T) {
	dir := t.TempDir()
	fakeTool(t, dir, "cutadapt", "4.9")
	t.Setenv("PATH", dir+":/usr/bin:/bin")

	toolLocateCmd.SetContext(context.Background())
	err := runToolLocate(toolLocateCmd, []string{"cutadapt"})
	assert.NoError(t, err)
}

func TestRunToolLocate_UnknownTool(t *testing.T) {
	toolLocateCmd.SetContext(context.Background())
	err := runToolLocate(toolLocateCmd, []string{"bowtie2"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCodeFor(err))
}

func TestRunToolRun_BadParamsJSON(t *testing.T) {
	toolRunCmd.SetContext(context.Background())
	err := runToolRun(toolRunCmd, []string{"cutadapt", "not json"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCodeFor(err))
}

func TestRunToolRun_WaitsForCompletion(t *testing.T) {
	binDir := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then echo "4.9"; exit 0; fi
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then touch "$2"; fi
  shift
done
exit 0`
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cutadapt"), []byte(script), 0755))
	t.Setenv("PATH", binDir+":/usr/bin:/bin")

	dataDir := t.TempDir()
	input := filepath.Join(dataDir, "sample.fastq")
	require.NoError(t, os.WriteFile(input, []byte("@r1\nACGT\n+\nIIII\n"), 0644))

	params := `{"input_path": "` + input + `", "adapter": "AGATCGGAAGAGC"}`
	toolRunCmd.SetContext(context.Background())
	err := runToolRun(toolRunCmd, []string{"cutadapt", params})
	assert.NoError(t, err)
}

func TestRunToolRun_FailureCarriesExitCode(t *testing.T) {
	binDir := t.TempDir()
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then echo "4.9"; exit 0; fi
echo "bad input" >&2
exit 1`
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "cutadapt"), []byte(script), 0755))
	t.Setenv("PATH", binDir+":/usr/bin:/bin")

	params := `{"input_path": "/data/sample.fastq"}`
	toolRunCmd.SetContext(context.Background())
	err := runToolRun(toolRunCmd, []string{"cutadapt", params})
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, exitCodeFor(err))
}
