package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bioopenmcp/biomcp/pkg/jobs"
)

// STARParams are the inputs for one STAR alignment run.
type STARParams struct {
	// GenomeDir is the STAR genome index directory. Required.
	GenomeDir string `mapstructure:"genome_dir" json:"genome_dir"`

	// ReadFiles1 is the first (or only) FASTQ input. Required.
	ReadFiles1 string `mapstructure:"read_files_1" json:"read_files_1"`

	// ReadFiles2 is the mate file for paired-end data. Optional.
	ReadFiles2 string `mapstructure:"read_files_2" json:"read_files_2,omitempty"`

	// OutputDir receives the alignment output. Defaults to the directory
	// of ReadFiles1.
	OutputDir string `mapstructure:"output_dir" json:"output_dir,omitempty"`

	// Threads maps to --runThreadN. Zero means tool default.
	Threads int `mapstructure:"threads" json:"threads,omitempty"`

	// SortedBAM requests --outSAMtype BAM SortedByCoordinate instead of
	// the default unsorted SAM.
	SortedBAM bool `mapstructure:"sorted_bam" json:"sorted_bam,omitempty"`

	// ExtraArgs are appended verbatim (whitespace-split) to the command.
	ExtraArgs string `mapstructure:"extra_args" json:"extra_args,omitempty"`
}

// STARAdapter wraps the STAR spliced aligner.
//
// Result convention: <prefix>Aligned.out.sam, or
// <prefix>Aligned.sortedByCoord.out.bam when a sorted BAM is requested,
// with prefix <output_dir>/<stem>_.
type STARAdapter struct{}

func (STARAdapter) Name() string { return "star" }

func (STARAdapter) NewParams() any { return &STARParams{} }

func (a STARAdapter) Spec(binPath string, params any) (jobs.Spec, error) {
	p, ok := params.(*STARParams)
	if !ok {
		return jobs.Spec{}, wrongParams(a.Name(), params)
	}
	if p.GenomeDir == "" {
		return jobs.Spec{}, missingParam("star", "genome_dir")
	}
	if p.ReadFiles1 == "" {
		return jobs.Spec{}, missingParam("star", "read_files_1")
	}

	outDir := p.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(p.ReadFiles1)
	}
	stem := fastqStem(p.ReadFiles1)
	prefix := filepath.Join(outDir, stem+"_")

	argv := []string{binPath, "--genomeDir", p.GenomeDir, "--readFilesIn", p.ReadFiles1}
	if p.ReadFiles2 != "" {
		argv = append(argv, p.ReadFiles2)
	}
	if strings.HasSuffix(p.ReadFiles1, ".gz") {
		argv = append(argv, "--readFilesCommand", "zcat")
	}
	if p.Threads > 0 {
		argv = append(argv, "--runThreadN", fmt.Sprintf("%d", p.Threads))
	}
	argv = append(argv, "--outFileNamePrefix", prefix)

	result := prefix + "Aligned.out.sam"
	if p.SortedBAM {
		argv = append(argv, "--outSAMtype", "BAM", "SortedByCoordinate")
		result = prefix + "Aligned.sortedByCoord.out.bam"
	}
	argv = append(argv, splitExtraArgs(p.ExtraArgs)...)

	return jobs.Spec{
		Tool:       a.Name(),
		Argv:       argv,
		Slug:       stem,
		Params:     p,
		ResultPath: result,
	}, nil
}
