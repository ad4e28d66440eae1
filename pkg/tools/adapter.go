package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// Adapter maps typed tool parameters to a concrete command line and a
// result-path convention. Each wrapped tool contributes one adapter; all
// launch, status, stop, and cleanup behavior is shared.
type Adapter interface {
	// Name is the logical tool name, matching the catalog key.
	Name() string

	// NewParams returns a pointer to an empty parameter struct suitable
	// for decoding transport arguments into.
	NewParams() any

	// Spec builds a launchable spec from the resolved executable path and
	// decoded parameters. Parameter-contract violations (missing required
	// fields) are returned synchronously; a nonexistent input path is not
	// checked here and surfaces as a failed job instead.
	Spec(binPath string, params any) (jobs.Spec, error)
}

// ParamResolver is implemented by adapters that amend decoded parameters
// before the command line is built, e.g. resolving a bare filename to a
// full path.
type ParamResolver interface {
	ResolveParams(ctx context.Context, params any) error
}

// Adapters returns all tool adapters, keyed by name.
func Adapters() map[string]Adapter {
	out := make(map[string]Adapter)
	for _, a := range []Adapter{
		FastQCAdapter{},
		STARAdapter{},
		MultiQCAdapter{},
		CutadaptAdapter{},
		TrimGaloreAdapter{},
	} {
		out[a.Name()] = a
	}
	return out
}

// fastqStem strips the conventional FASTQ suffixes from a filename.
// "sample_R1.fastq.gz" becomes "sample_R1".
func fastqStem(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	if ext := filepath.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// splitExtraArgs whitespace-splits a free-form extra-arguments string into
// discrete tokens. No shell quoting or expansion is supported.
func splitExtraArgs(extra string) []string {
	return strings.Fields(extra)
}

func wrongParams(tool string, params any) error {
	return fmt.Errorf("%w: %s: unexpected parameter type %T", ErrInvalidParams, tool, params)
}

func missingParam(tool, field string) error {
	return fmt.Errorf("%w: %s: %s is required", ErrInvalidParams, tool, field)
}
