package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// TrimGaloreParams are the inputs for one Trim Galore run.
type TrimGaloreParams struct {
	// InputPath is the first (or only) FASTQ file. Required.
	InputPath string `mapstructure:"input_path" json:"input_path"`

	// InputPath2 is the mate file; setting it enables --paired.
	InputPath2 string `mapstructure:"input_path_2" json:"input_path_2,omitempty"`

	// OutputDir receives the trimmed files. Defaults to the input's
	// directory.
	OutputDir string `mapstructure:"output_dir" json:"output_dir,omitempty"`

	// Cores maps to --cores. Zero means tool default.
	Cores int `mapstructure:"cores" json:"cores,omitempty"`

	// ExtraArgs are appended verbatim (whitespace-split) to the command.
	ExtraArgs string `mapstructure:"extra_args" json:"extra_args,omitempty"`
}

// TrimGaloreAdapter wraps Trim Galore, the cutadapt/FastQC wrapper.
//
// Result convention: <stem>_trimmed.fq in the output directory for
// single-end input, <stem>_val_1.fq for paired-end; both gain .gz when
// the input is gzipped (Trim Galore compresses output to match input).
type TrimGaloreAdapter struct{}

func (TrimGaloreAdapter) Name() string { return "trim_galore" }

func (TrimGaloreAdapter) NewParams() any { return &TrimGaloreParams{} }

func (a TrimGaloreAdapter) Spec(binPath string, params any) (jobs.Spec, error) {
	p, ok := params.(*TrimGaloreParams)
	if !ok {
		return jobs.Spec{}, wrongParams(a.Name(), params)
	}
	if p.InputPath == "" {
		return jobs.Spec{}, missingParam("trim_galore", "input_path")
	}

	outDir := p.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(p.InputPath)
	}

	argv := []string{binPath, "--output_dir", outDir}
	if p.Cores > 0 {
		argv = append(argv, "--cores", fmt.Sprintf("%d", p.Cores))
	}
	argv = append(argv, splitExtraArgs(p.ExtraArgs)...)

	stem := fastqStem(p.InputPath)
	resultName := stem + "_trimmed.fq"
	if p.InputPath2 != "" {
		argv = append(argv, "--paired", p.InputPath, p.InputPath2)
		resultName = stem + "_val_1.fq"
	} else {
		argv = append(argv, p.InputPath)
	}
	if strings.HasSuffix(p.InputPath, ".gz") {
		resultName += ".gz"
	}

	return jobs.Spec{
		Tool:       a.Name(),
		Argv:       argv,
		Slug:       stem,
		Params:     p,
		ResultPath: filepath.Join(outDir, resultName),
	}, nil
}
