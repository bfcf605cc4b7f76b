// Package discover implements §4.1's file discovery: a recursive walk that
// filters out build/vendor directories using boundary-aware segment
// matching ("bin must not match a directory named binary"), optionally
// narrowed by doublestar include/exclude globs — the same glob library the
// teacher uses for test-file and config discovery (github.com/bmatcuk/doublestar/v4).
package discover

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"os"
)

// skipDirs are the standard build/vendor directory names filtered out
// regardless of language, per §4.1.
var skipDirs = []string{"obj", "bin", ".git", ".vs", "node_modules"}

// Options narrows discovery beyond the extension filter.
type Options struct {
	IncludeGlobs []string
	ExcludeGlobs []string
}

// Find walks root recursively, returning every file whose extension is in
// extensions and whose relative path does not cross a skip directory.
func Find(root string, extensions []string) ([]string, error) {
	return FindWithOptions(root, extensions, Options{})
}

// FindWithOptions is Find with additional include/exclude glob filtering.
func FindWithOptions(root string, extensions []string, opts Options) ([]string, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = true
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if info.IsDir() {
			if path != root && shouldSkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if len(opts.IncludeGlobs) > 0 && !matchesAny(opts.IncludeGlobs, rel) {
			return nil
		}
		if matchesAny(opts.ExcludeGlobs, rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func matchesAny(globs []string, rel string) bool {
	relSlash := filepath.ToSlash(rel)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, relSlash); ok {
			return true
		}
	}
	return false
}

// shouldSkipDir reports whether rel (a path relative to the scan root)
// crosses a directory that should be pruned. Matching is boundary-aware:
// it inspects the path separators immediately before and after the
// candidate substring so "bin" never matches inside "binary" (§4.1).
func shouldSkipDir(rel string) bool {
	relSlash := "/" + filepath.ToSlash(rel) + "/"
	for _, skip := range skipDirs {
		needle := "/" + skip + "/"
		if strings.Contains(relSlash, needle) {
			return true
		}
	}
	return false
}
