package tools

import (
	"path/filepath"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// MultiQCParams are the inputs for one MultiQC aggregation run.
type MultiQCParams struct {
	// AnalysisDir is the directory scanned for tool reports. Required.
	AnalysisDir string `mapstructure:"analysis_dir" json:"analysis_dir"`

	// OutputDir receives the aggregate report. Defaults to AnalysisDir.
	OutputDir string `mapstructure:"output_dir" json:"output_dir,omitempty"`

	// ReportName overrides the report filename (without extension).
	ReportName string `mapstructure:"report_name" json:"report_name,omitempty"`

	// ExtraArgs are appended verbatim (whitespace-split) to the command.
	ExtraArgs string `mapstructure:"extra_args" json:"extra_args,omitempty"`
}

// MultiQCAdapter wraps the MultiQC report aggregator.
//
// Result convention: <output_dir>/<report_name>.html, defaulting to
// multiqc_report.html.
type MultiQCAdapter struct{}

func (MultiQCAdapter) Name() string { return "multiqc" }

func (MultiQCAdapter) NewParams() any { return &MultiQCParams{} }

func (a MultiQCAdapter) Spec(binPath string, params any) (jobs.Spec, error) {
	p, ok := params.(*MultiQCParams)
	if !ok {
		return jobs.Spec{}, wrongParams(a.Name(), params)
	}
	if p.AnalysisDir == "" {
		return jobs.Spec{}, missingParam("multiqc", "analysis_dir")
	}

	outDir := p.OutputDir
	if outDir == "" {
		outDir = p.AnalysisDir
	}
	reportName := p.ReportName
	if reportName == "" {
		reportName = "multiqc_report"
	}

	argv := []string{binPath, p.AnalysisDir, "--outdir", outDir}
	if p.ReportName != "" {
		argv = append(argv, "--filename", p.ReportName)
	}
	argv = append(argv, splitExtraArgs(p.ExtraArgs)...)

	return jobs.Spec{
		Tool:       a.Name(),
		Argv:       argv,
		Slug:       filepath.Base(p.AnalysisDir),
		Params:     p,
		ResultPath: filepath.Join(outDir, reportName+".html"),
	}, nil
}
