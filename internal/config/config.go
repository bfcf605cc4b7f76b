// Package config resolves the small set of environment-driven settings
// described in spec.md §6 ("Environment variables consumed") and §4.5
// ("external helper" path), loading local overrides from a .env file the
// same way the teacher repo does (db/sqlite_integration_test.go: a bare
// `_ = godotenv.Load()`, errors ignored since the file is optional).
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

// DependencyCacheRoot returns the root of the per-language dependency
// artifact cache (§6 "Dependency-artifact layout"). envVar is the
// language-appropriate variable name (e.g. NUGET_PACKAGES for .NET);
// fallback is the language's conventional user-home default.
func DependencyCacheRoot(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// UsageHelperPath returns the configured path to the external usage-analysis
// helper (§4.5 Mode B), or "" if none is configured — callers treat that as
// HelperUnavailable.
func UsageHelperPath(envVar string) string {
	return os.Getenv(envVar)
}

// MaxParseWorkers returns the parser-phase concurrency cap from §4.1 /
// §5: min(cpu, 8), beyond which memory bandwidth dominates. An explicit
// override (0 means "unset") takes precedence.
func MaxParseWorkers(override int) int {
	if override > 0 {
		return override
	}
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	return n
}

// DependencyBatchSize is the §4.3 / §5 semantic-analysis batch size
// (~500 trees per batch, to cap intermediate semantic-model memory).
const DependencyBatchSize = 500

// ExtractionCacheDSN returns the DSN for the per-file extraction
// memoization cache (internal/extractcache): an explicit env override
// (local file path or a libsql/https URL for a shared remote cache), or
// a local SQLite file under the user's cache directory.
func ExtractionCacheDSN(envVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "apigraph-cache.db"
	}
	return filepath.Join(dir, "apigraph", "extract-cache.db")
}
