package depresolve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// ArtifactLayout describes the "<root>/<package-name>/<version>/<framework-folder>/<artifact>"
// dependency-artifact cache layout from §6.
type ArtifactLayout struct {
	Root string
	// FrameworkPreference is ordered newest to oldest; the first matching
	// folder under the chosen version directory wins.
	FrameworkPreference []string
}

// LocateArtifact finds the framework folder of the best-matching artifact
// for one manifest-declared package dependency: version folders are tried
// in semantic-version descending order (pre-release suffixes rank lowest,
// §4.3 step 1b "parse versions as semantic versions, treating pre-release
// suffixes as lowest"), and the first version that holds a folder from
// FrameworkPreference wins, with that folder's path returned; a newer
// version lacking every preferred framework is skipped for an older one.
//
// Returns "" with ok=false if no version folder holds a preferred
// framework folder — never an error: a missing artifact is
// a recoverable DependencyLoadError (§7), logged by the caller and
// tolerated.
func (l ArtifactLayout) LocateArtifact(packageName string) (path string, ok bool) {
	pkgDir := filepath.Join(l.Root, packageName)
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", false
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		versions = append(versions, e.Name())
	}
	if len(versions) == 0 {
		return "", false
	}

	sort.Slice(versions, func(i, j int) bool {
		return semverLess(versions[i], versions[j])
	})
	// Descending: last element after ascending sort is the newest.
	for i := len(versions) - 1; i >= 0; i-- {
		versionDir := filepath.Join(pkgDir, versions[i])
		for _, fw := range l.FrameworkPreference {
			candidate := filepath.Join(versionDir, fw)
			if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// semverLess orders two version-folder names ascending, treating
// pre-release versions as lowest among equal (major, minor, patch)
// triples — golang.org/x/mod/semver already implements exactly that
// ordering for canonical "vX.Y.Z[-pre]" strings, so folder names are
// normalized to that shape before comparison.
func semverLess(a, b string) bool {
	va, oka := toCanonicalSemver(a)
	vb, okb := toCanonicalSemver(b)
	if oka && okb {
		return semver.Compare(va, vb) < 0
	}
	// Non-semver folder names (rare) are treated as lower than every valid
	// version, so picking from the high end of the sorted slice always
	// prefers a real semantic version over a malformed folder name.
	if oka != okb {
		return !oka
	}
	return a < b
}

func toCanonicalSemver(v string) (string, bool) {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return v, true
}
