package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// CutadaptParams are the inputs for one cutadapt trimming run.
type CutadaptParams struct {
	// InputPath is the FASTQ file to trim. Required.
	InputPath string `mapstructure:"input_path" json:"input_path"`

	// OutputPath is the trimmed output file. Defaults to
	// <stem>_trimmed<suffix> next to the input.
	OutputPath string `mapstructure:"output_path" json:"output_path,omitempty"`

	// Adapter is the 3' adapter sequence (-a). Optional; cutadapt can
	// run purely on quality/extra args.
	Adapter string `mapstructure:"adapter" json:"adapter,omitempty"`

	// Cores maps to --cores. Zero means tool default.
	Cores int `mapstructure:"cores" json:"cores,omitempty"`

	// ExtraArgs are appended verbatim (whitespace-split) to the command.
	ExtraArgs string `mapstructure:"extra_args" json:"extra_args,omitempty"`
}

// CutadaptAdapter wraps the cutadapt adapter trimmer.
//
// Result convention: the explicit -o output path.
type CutadaptAdapter struct{}

func (CutadaptAdapter) Name() string { return "cutadapt" }

func (CutadaptAdapter) NewParams() any { return &CutadaptParams{} }

func (a CutadaptAdapter) Spec(binPath string, params any) (jobs.Spec, error) {
	p, ok := params.(*CutadaptParams)
	if !ok {
		return jobs.Spec{}, wrongParams(a.Name(), params)
	}
	if p.InputPath == "" {
		return jobs.Spec{}, missingParam("cutadapt", "input_path")
	}

	stem := fastqStem(p.InputPath)
	output := p.OutputPath
	if output == "" {
		suffix := strings.TrimPrefix(filepath.Base(p.InputPath), stem)
		output = filepath.Join(filepath.Dir(p.InputPath), stem+"_trimmed"+suffix)
	}

	argv := []string{binPath}
	if p.Adapter != "" {
		argv = append(argv, "-a", p.Adapter)
	}
	if p.Cores > 0 {
		argv = append(argv, "--cores", fmt.Sprintf("%d", p.Cores))
	}
	argv = append(argv, splitExtraArgs(p.ExtraArgs)...)
	argv = append(argv, "-o", output, p.InputPath)

	return jobs.Spec{
		Tool:       a.Name(),
		Argv:       argv,
		Slug:       stem,
		Params:     p,
		ResultPath: output,
	}, nil
}
