package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// FastQCParams are the inputs for one FastQC run.
type FastQCParams struct {
	// FastqPath is the FASTQ file to analyze. Required.
	FastqPath string `mapstructure:"fastq_path" json:"fastq_path"`

	// OutputDir receives the HTML report. Defaults to the input's
	// directory, matching FastQC's --outdir convention.
	OutputDir string `mapstructure:"output_dir" json:"output_dir,omitempty"`

	// Threads maps to --threads. Zero means tool default.
	Threads int `mapstructure:"threads" json:"threads,omitempty"`

	// ExtraArgs are appended verbatim (whitespace-split) to the command.
	ExtraArgs string `mapstructure:"extra_args" json:"extra_args,omitempty"`
}

// FastQCAdapter wraps the FastQC quality-control tool.
//
// Result convention: <stem>_fastqc.html in the output directory, where
// stem is the input filename without its FASTQ suffix.
type FastQCAdapter struct{}

func (FastQCAdapter) Name() string { return "fastqc" }

func (FastQCAdapter) NewParams() any { return &FastQCParams{} }

// ResolveParams turns a fastq_path that does not exist on disk into a
// full path through the FASTQ finder, so a bare filename like
// "sample_R1.fastq.gz" launches without the caller spelling out where
// the sequencer dropped it. On multiple matches the first (sorted) wins.
func (a FastQCAdapter) ResolveParams(ctx context.Context, params any) error {
	p, ok := params.(*FastQCParams)
	if !ok {
		return wrongParams(a.Name(), params)
	}
	if p.FastqPath == "" {
		return nil
	}
	if _, err := os.Stat(p.FastqPath); err == nil {
		return nil
	}

	found, err := fastq.Finder{}.Find(ctx, p.FastqPath)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("%w: fastqc: could not find FASTQ file %s", ErrInvalidParams, p.FastqPath)
	}
	p.FastqPath = found[0]
	return nil
}

func (a FastQCAdapter) Spec(binPath string, params any) (jobs.Spec, error) {
	p, ok := params.(*FastQCParams)
	if !ok {
		return jobs.Spec{}, wrongParams(a.Name(), params)
	}
	if p.FastqPath == "" {
		return jobs.Spec{}, missingParam("fastqc", "fastq_path")
	}

	outDir := p.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(p.FastqPath)
	}

	argv := []string{binPath, p.FastqPath, "--outdir", outDir}
	if p.Threads > 0 {
		argv = append(argv, "--threads", fmt.Sprintf("%d", p.Threads))
	}
	argv = append(argv, splitExtraArgs(p.ExtraArgs)...)

	stem := fastqStem(p.FastqPath)
	return jobs.Spec{
		Tool:       a.Name(),
		Argv:       argv,
		Slug:       stem,
		Params:     p,
		ResultPath: filepath.Join(outDir, stem+"_fastqc.html"),
	}, nil
}
