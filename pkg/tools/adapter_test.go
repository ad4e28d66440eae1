package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFastqStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/data/sample.fastq", "sample"},
		{"/data/sample.fastq.gz", "sample"},
		{"/data/sample_R1.fq.gz", "sample_R1"},
		{"/data/sample.fq", "sample"},
		{"/data/reads.txt", "reads"},
		{"/data/noext", "noext"},
	}
	for _, tt := range tests {
		if got := fastqStem(tt.in); got != tt.want {
			t.Fatalf("fastqStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFastQCAdapter_Spec(t *testing.T) {
	spec, err := FastQCAdapter{}.Spec("/usr/local/bin/fastqc", &FastQCParams{
		FastqPath: "/data/sample.fastq.gz",
		Threads:   4,
		ExtraArgs: "--nogroup",
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}

	want := []string{"/usr/local/bin/fastqc", "/data/sample.fastq.gz", "--outdir", "/data", "--threads", "4", "--nogroup"}
	if !reflect.DeepEqual(spec.Argv, want) {
		t.Fatalf("argv mismatch:\n got  %v\n want %v", spec.Argv, want)
	}
	if spec.ResultPath != "/data/sample_fastqc.html" {
		t.Fatalf("result path = %q", spec.ResultPath)
	}
	if spec.Slug != "sample" {
		t.Fatalf("slug = %q", spec.Slug)
	}
}

func TestFastQCAdapter_RequiresInput(t *testing.T) {
	if _, err := (FastQCAdapter{}).Spec("/bin/fastqc", &FastQCParams{}); err == nil {
		t.Fatalf("expected error for missing fastq_path")
	}
	if _, err := (FastQCAdapter{}).Spec("/bin/fastqc", &STARParams{}); err == nil {
		t.Fatalf("expected error for wrong parameter type")
	}
}

func TestFastQCAdapter_ResolveParamsFindsBareFilename(t *testing.T) {
	home := t.TempDir()
	downloads := filepath.Join(home, "Downloads")
	if err := os.MkdirAll(downloads, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(downloads, "sample_R1.fastq.gz")
	if err := os.WriteFile(target, []byte("@r1\nACGT\n+\nFFFF\n"), 0644); err != nil {
		t.Fatalf("write fastq: %v", err)
	}
	t.Setenv("HOME", home)

	p := &FastQCParams{FastqPath: "sample_R1.fastq.gz"}
	if err := (FastQCAdapter{}).ResolveParams(context.Background(), p); err != nil {
		t.Fatalf("ResolveParams: %v", err)
	}
	if p.FastqPath != target {
		t.Fatalf("fastq_path = %q, want %q", p.FastqPath, target)
	}
}

func TestFastQCAdapter_ResolveParamsKeepsExistingPath(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "sample.fastq")
	if err := os.WriteFile(existing, []byte("@r1\nACGT\n+\nFFFF\n"), 0644); err != nil {
		t.Fatalf("write fastq: %v", err)
	}
	t.Setenv("HOME", t.TempDir())

	p := &FastQCParams{FastqPath: existing}
	if err := (FastQCAdapter{}).ResolveParams(context.Background(), p); err != nil {
		t.Fatalf("ResolveParams: %v", err)
	}
	if p.FastqPath != existing {
		t.Fatalf("existing path must be used as given, got %q", p.FastqPath)
	}
}

func TestFastQCAdapter_ResolveParamsUnknownFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := &FastQCParams{FastqPath: "no_such_run.fastq"}
	err := (FastQCAdapter{}).ResolveParams(context.Background(), p)
	if err == nil {
		t.Fatalf("expected error for unresolvable file")
	}
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}

func TestSTARAdapter_SpecPairedSorted(t *testing.T) {
	spec, err := STARAdapter{}.Spec("/opt/STAR", &STARParams{
		GenomeDir:  "/ref/grch38",
		ReadFiles1: "/data/sample_R1.fastq.gz",
		ReadFiles2: "/data/sample_R2.fastq.gz",
		OutputDir:  "/out",
		Threads:    8,
		SortedBAM:  true,
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}

	want := []string{
		"/opt/STAR",
		"--genomeDir", "/ref/grch38",
		"--readFilesIn", "/data/sample_R1.fastq.gz", "/data/sample_R2.fastq.gz",
		"--readFilesCommand", "zcat",
		"--runThreadN", "8",
		"--outFileNamePrefix", filepath.Join("/out", "sample_R1_"),
		"--outSAMtype", "BAM", "SortedByCoordinate",
	}
	if !reflect.DeepEqual(spec.Argv, want) {
		t.Fatalf("argv mismatch:\n got  %v\n want %v", spec.Argv, want)
	}
	if spec.ResultPath != filepath.Join("/out", "sample_R1_Aligned.sortedByCoord.out.bam") {
		t.Fatalf("result path = %q", spec.ResultPath)
	}
}

func TestSTARAdapter_SpecSingleUnsorted(t *testing.T) {
	spec, err := STARAdapter{}.Spec("/opt/STAR", &STARParams{
		GenomeDir:  "/ref/grch38",
		ReadFiles1: "/data/sample.fastq",
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.ResultPath != filepath.Join("/data", "sample_Aligned.out.sam") {
		t.Fatalf("result path = %q", spec.ResultPath)
	}
	for _, tok := range spec.Argv {
		if tok == "zcat" {
			t.Fatalf("zcat must not be set for uncompressed input")
		}
	}
}

func TestMultiQCAdapter_Spec(t *testing.T) {
	spec, err := MultiQCAdapter{}.Spec("/usr/bin/multiqc", &MultiQCParams{
		AnalysisDir: "/runs/batch7",
		ReportName:  "batch7_qc",
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.ResultPath != filepath.Join("/runs/batch7", "batch7_qc.html") {
		t.Fatalf("result path = %q", spec.ResultPath)
	}

	// Default report name.
	spec, err = MultiQCAdapter{}.Spec("/usr/bin/multiqc", &MultiQCParams{AnalysisDir: "/runs/batch7"})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.ResultPath != filepath.Join("/runs/batch7", "multiqc_report.html") {
		t.Fatalf("default result path = %q", spec.ResultPath)
	}
}

func TestCutadaptAdapter_Spec(t *testing.T) {
	spec, err := CutadaptAdapter{}.Spec("/usr/bin/cutadapt", &CutadaptParams{
		InputPath: "/data/sample.fastq.gz",
		Adapter:   "AGATCGGAAGAGC",
		Cores:     2,
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}

	want := []string{
		"/usr/bin/cutadapt",
		"-a", "AGATCGGAAGAGC",
		"--cores", "2",
		"-o", "/data/sample_trimmed.fastq.gz",
		"/data/sample.fastq.gz",
	}
	if !reflect.DeepEqual(spec.Argv, want) {
		t.Fatalf("argv mismatch:\n got  %v\n want %v", spec.Argv, want)
	}
	if spec.ResultPath != "/data/sample_trimmed.fastq.gz" {
		t.Fatalf("result path = %q", spec.ResultPath)
	}
}

func TestTrimGaloreAdapter_Spec(t *testing.T) {
	// Single-end gzipped.
	spec, err := TrimGaloreAdapter{}.Spec("/usr/bin/trim_galore", &TrimGaloreParams{
		InputPath: "/data/sample.fastq.gz",
		OutputDir: "/out",
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.ResultPath != filepath.Join("/out", "sample_trimmed.fq.gz") {
		t.Fatalf("single-end result path = %q", spec.ResultPath)
	}

	// Paired-end.
	spec, err = TrimGaloreAdapter{}.Spec("/usr/bin/trim_galore", &TrimGaloreParams{
		InputPath:  "/data/sample_R1.fastq",
		InputPath2: "/data/sample_R2.fastq",
		OutputDir:  "/out",
	})
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.ResultPath != filepath.Join("/out", "sample_R1_val_1.fq") {
		t.Fatalf("paired result path = %q", spec.ResultPath)
	}

	paired := false
	for _, tok := range spec.Argv {
		if tok == "--paired" {
			paired = true
		}
	}
	if !paired {
		t.Fatalf("--paired missing for two inputs: %v", spec.Argv)
	}
}

func TestSplitExtraArgs(t *testing.T) {
	got := splitExtraArgs("  --nogroup   --kmers 5 ")
	want := []string{"--nogroup", "--kmers", "5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitExtraArgs = %v, want %v", got, want)
	}
	if got := splitExtraArgs(""); len(got) != 0 {
		t.Fatalf("empty extra args should split to nothing, got %v", got)
	}
}
