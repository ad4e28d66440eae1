package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// JavaDiagnostics captures the state of the Java runtime a tool depends on.
type JavaDiagnostics struct {
	Installed bool   `json:"java_installed"`
	Path      string `json:"java_path,omitempty"`
	Version   string `json:"java_version,omitempty"`
}

// LocateResult is the outcome of a read-only tool probe.
//
// Absence is a normal result, never an error: Installed is false and
// Diagnostics explains where the probe looked.
type LocateResult struct {
	Tool        string           `json:"tool"`
	Installed   bool             `json:"installed"`
	Path        string           `json:"path,omitempty"`
	Version     string           `json:"version,omitempty"`
	Diagnostics string           `json:"diagnostics"`
	Java        *JavaDiagnostics `json:"java,omitempty"`
}

// condaJavaHome is preferred over the system JRE when present, matching
// how Anaconda installs ship FastQC with their own JVM.
const condaJavaHome = "/opt/anaconda3/lib/jvm"

const versionProbeTimeout = 10 * time.Second

// Locate probes for a tool without mutating host state.
//
// Resolution order: PATH lookup, then the catalog's fallback paths. When
// found, the binary is run with its version args; a failing version probe
// downgrades nothing, it only leaves Version empty with a diagnostic.
func (c *Catalog) Locate(ctx context.Context, name string) (LocateResult, error) {
	def, err := c.Lookup(name)
	if err != nil {
		return LocateResult{}, err
	}

	res := LocateResult{Tool: normalizeToolName(name)}
	var notes []string

	path, lookErr := exec.LookPath(def.Binary)
	if lookErr == nil {
		res.Installed = true
		res.Path = path
		notes = append(notes, fmt.Sprintf("found %s on PATH at %s", def.Binary, path))
	} else {
		notes = append(notes, fmt.Sprintf("%s not on PATH", def.Binary))
		for _, fallback := range def.FallbackPaths {
			if isExecutable(fallback) {
				res.Installed = true
				res.Path = fallback
				notes = append(notes, fmt.Sprintf("found at fallback path %s", fallback))
				break
			}
		}
		if !res.Installed {
			notes = append(notes, fmt.Sprintf("checked fallback paths: %s", strings.Join(def.FallbackPaths, ", ")))
		}
	}

	if res.Installed && len(def.VersionArgs) > 0 {
		version, probeErr := probeVersion(ctx, res.Path, def.VersionArgs)
		if probeErr != nil {
			notes = append(notes, fmt.Sprintf("version probe failed: %v", probeErr))
		} else {
			res.Version = version
		}
	}

	if def.RequiresJava {
		res.Java = locateJava(ctx)
		if !res.Java.Installed {
			notes = append(notes, "java runtime not found; required at run time")
		}
	}

	res.Diagnostics = strings.Join(notes, "; ")
	return res, nil
}

// probeVersion runs the binary's version command and returns the first
// non-empty output stream, trimmed. Tools disagree about which stream
// carries the version string (java famously uses stderr).
func probeVersion(ctx context.Context, path string, versionArgs []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := Run(ctx, append([]string{path}, versionArgs...), RunOptions{})
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(out.Stdout)
	if version == "" {
		version = strings.TrimSpace(out.Stderr)
	}
	if version == "" {
		return "", fmt.Errorf("no version output")
	}
	// Keep only the first line; some tools print banners.
	if idx := strings.IndexByte(version, '\n'); idx >= 0 {
		version = strings.TrimSpace(version[:idx])
	}
	return version, nil
}

func locateJava(ctx context.Context) *JavaDiagnostics {
	diag := &JavaDiagnostics{}

	javaPath := filepath.Join(condaJavaHome, "bin", "java")
	if !isExecutable(javaPath) {
		var err error
		javaPath, err = exec.LookPath("java")
		if err != nil {
			return diag
		}
	}

	diag.Installed = true
	diag.Path = javaPath
	if version, err := probeVersion(ctx, javaPath, []string{"-version"}); err == nil {
		diag.Version = version
	}
	return diag
}

// JavaEnv returns the environment entries that point a Java-dependent
// tool at the preferred runtime, or nil when no fixup is needed.
func JavaEnv() []string {
	javaBin := filepath.Join(condaJavaHome, "bin")
	if !isExecutable(filepath.Join(javaBin, "java")) {
		return nil
	}
	return []string{
		"JAVA_HOME=" + condaJavaHome,
		"PATH=" + javaBin + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
