// Package fastq locates FASTQ files on the local filesystem.
//
// Sequencing runs tend to land in a handful of conventional places
// (Downloads, Desktop, Documents, the working directory), so the finder
// fans out over those by default and matches the usual FASTQ extensions
// with doublestar glob semantics.
package fastq

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Extensions lists the file suffixes treated as FASTQ data.
var Extensions = []string{".fastq", ".fq", ".fastq.gz", ".fq.gz"}

const searchConcurrency = 4

// Finder searches a set of directories for FASTQ files.
type Finder struct {
	// SearchDirs overrides the default search locations when non-empty.
	SearchDirs []string
}

// DefaultSearchDirs returns the conventional drop locations for
// sequencing data plus the current working directory. Directories that
// cannot be resolved are omitted.
func DefaultSearchDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "Downloads"),
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Documents"),
		)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}

// Find returns the FASTQ files under the search directories, sorted and
// de-duplicated. When name is non-empty the search narrows to files
// whose name contains it (exact matches included); otherwise every
// FASTQ file found is returned. Missing directories are skipped, and an
// empty result is not an error.
func (f Finder) Find(ctx context.Context, name string) ([]string, error) {
	dirs := f.SearchDirs
	if len(dirs) == 0 {
		dirs = DefaultSearchDirs()
	}

	var mu sync.Mutex
	var found []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			matches, err := searchDir(dir, name)
			if err != nil {
				return err
			}
			mu.Lock()
			found = append(found, matches...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupeSorted(found), nil
}

func searchDir(dir, name string) ([]string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}

	var matches []string
	for _, pattern := range patternsFor(dir, name) {
		hits, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		matches = append(matches, hits...)
	}
	return matches, nil
}

// patternsFor builds the glob set for one directory. A named search
// tries the literal name first, then substring variants per extension,
// so both "sample.fastq" and "sample" resolve.
func patternsFor(dir, name string) []string {
	if name == "" {
		patterns := make([]string, 0, len(Extensions))
		for _, ext := range Extensions {
			patterns = append(patterns, filepath.Join(dir, "*"+ext))
		}
		return patterns
	}

	patterns := []string{filepath.Join(dir, name)}
	for _, ext := range Extensions {
		patterns = append(patterns, filepath.Join(dir, "*"+name+"*"+ext))
	}
	return patterns
}

func dedupeSorted(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
