package mcp

import "fmt"

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// toolParamSchemas describes the launch arguments per tool. Keys match
// the mapstructure tags on the adapter parameter structs.
var toolParamSchemas = map[string]struct {
	properties map[string]any
	required   []string
}{
	"fastqc": {
		properties: map[string]any{
			"fastq_path": prop("string", "Path to the FASTQ file to analyze (plain or gzipped); a bare filename is searched for in the usual drop directories"),
			"output_dir": prop("string", "Directory for the HTML report; defaults to the input's directory"),
			"threads":    prop("integer", "Number of analysis threads"),
			"extra_args": prop("string", "Additional fastqc arguments, space separated"),
		},
		required: []string{"fastq_path"},
	},
	"star": {
		properties: map[string]any{
			"genome_dir":   prop("string", "STAR genome index directory"),
			"read_files_1": prop("string", "FASTQ file with mate 1 reads"),
			"read_files_2": prop("string", "FASTQ file with mate 2 reads, for paired-end data"),
			"output_dir":   prop("string", "Directory for alignment output; defaults to the input's directory"),
			"threads":      prop("integer", "Number of alignment threads"),
			"sorted_bam":   prop("boolean", "Emit a coordinate-sorted BAM instead of unsorted SAM"),
			"extra_args":   prop("string", "Additional STAR arguments, space separated"),
		},
		required: []string{"genome_dir", "read_files_1"},
	},
	"multiqc": {
		properties: map[string]any{
			"analysis_dir": prop("string", "Directory to scan for analysis results"),
			"output_dir":   prop("string", "Directory for the aggregated report; defaults to the analysis directory"),
			"report_name":  prop("string", "Report file name without extension"),
			"extra_args":   prop("string", "Additional multiqc arguments, space separated"),
		},
		required: []string{"analysis_dir"},
	},
	"cutadapt": {
		properties: map[string]any{
			"input_path":  prop("string", "FASTQ file to trim"),
			"output_path": prop("string", "Trimmed output path; defaults to <stem>_trimmed next to the input"),
			"adapter":     prop("string", "3' adapter sequence to remove"),
			"cores":       prop("integer", "Number of worker cores"),
			"extra_args":  prop("string", "Additional cutadapt arguments, space separated"),
		},
		required: []string{"input_path"},
	},
	"trim_galore": {
		properties: map[string]any{
			"input_path":   prop("string", "FASTQ file to trim"),
			"input_path_2": prop("string", "Second FASTQ file, enables paired-end mode"),
			"output_dir":   prop("string", "Directory for trimmed output; defaults to the input's directory"),
			"cores":        prop("integer", "Number of worker cores"),
			"extra_args":   prop("string", "Additional trim_galore arguments, space separated"),
		},
		required: []string{"input_path"},
	},
}

// toolOrder fixes the listing order so tools/list output is stable.
var toolOrder = []string{"fastqc", "star", "multiqc", "cutadapt", "trim_galore"}

func getAllTools() []Tool {
	tools := []Tool{}
	for _, name := range toolOrder {
		tools = append(tools, getPerToolTools(name)...)
	}
	tools = append(tools, getJobTools()...)
	tools = append(tools, getDiscoveryTools()...)
	return tools
}

func getPerToolTools(name string) []Tool {
	schema := toolParamSchemas[name]

	// The optional job id rides along with the tool parameters.
	launchProps := map[string]any{
		"job_id": prop("string", "Client-chosen job id; generated when omitted"),
	}
	for k, v := range schema.properties {
		launchProps[k] = v
	}

	return []Tool{
		{
			Name:        "run_" + name,
			Description: fmt.Sprintf("Launch %s as a background job and return its job id immediately.", name),
			InputSchema: objectSchema(launchProps, schema.required...),
		},
		{
			Name:        name + "_status",
			Description: fmt.Sprintf("Get the status record of a %s job, including output and result path once finished.", name),
			InputSchema: objectSchema(map[string]any{
				"job_id": prop("string", "Job id returned by run_"+name),
			}, "job_id"),
		},
		{
			Name:        "is_" + name + "_installed",
			Description: fmt.Sprintf("Check whether %s is installed, with path and version when found.", name),
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "install_" + name,
			Description: fmt.Sprintf("Attempt to install %s via the available package managers.", name),
			InputSchema: objectSchema(map[string]any{}),
		},
	}
}

func getJobTools() []Tool {
	return []Tool{
		{
			Name:        "list_jobs",
			Description: "List every tracked job with its current status.",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "stop_job",
			Description: "Stop a running job. Already-finished jobs are reported as-is.",
			InputSchema: objectSchema(map[string]any{
				"job_id": prop("string", "Job id to stop"),
			}, "job_id"),
		},
		{
			Name:        "cleanup_jobs",
			Description: "Remove job records. By default only completed jobs are removed.",
			InputSchema: objectSchema(map[string]any{
				"completed_only": prop("boolean", "Remove only completed jobs (default true); false removes everything, including running jobs, which orphans their processes"),
			}),
		},
	}
}

func getDiscoveryTools() []Tool {
	return []Tool{
		{
			Name:        "find_fastq_files",
			Description: "Search common locations (Downloads, Desktop, Documents, working directory) for FASTQ files.",
			InputSchema: objectSchema(map[string]any{
				"filename":   prop("string", "File name or name fragment to narrow the search"),
				"search_dir": prop("string", "Search only this directory instead of the defaults"),
			}),
		},
	}
}
