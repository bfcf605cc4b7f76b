// Package extract implements the Parser/Extractor component (§4.1): it
// discovers source files, fans parsing out across a bounded worker pool,
// merges partial type declarations into a shared TypeMap (§4.1.1), and
// runs the base-type classifier (§4.1.2) once every writer has joined.
//
// The worker-pool shape is grounded on the teacher's internal/cli/runner.go
// (termfx/morfx): an unbuffered jobs channel plus a fixed pool of goroutines
// draining it, synchronized with sync.WaitGroup.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/termfx/apigraph/internal/apierr"
	"github.com/termfx/apigraph/internal/config"
	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/diag"
	"github.com/termfx/apigraph/internal/discover"
	"github.com/termfx/apigraph/internal/manifest"
)

// ExternalRef is one externally-referenced type found while walking a
// declaration's base list or a member's signature types. Collected during
// parsing; resolved to a DependencyInfo package grouping by
// internal/depresolve, after classification has established which names
// are first-party (§4.3).
type ExternalRef struct {
	SimpleName         string
	Qualifier          string // fully-qualified prefix as written in source, "" if none
	DeclaringNamespace string // namespace of the referencing type, used as a fallback attribution
	Kind               core.Kind
}

// RawType is one parsed, not-yet-merged type declaration emitted by a
// LanguageExtractor for a single file.
type RawType struct {
	Namespace      string
	Name           string
	Kind           core.Kind
	Doc            string
	RawBases       []string
	Members        []core.MemberInfo
	Values         []string
	ReExportedFrom string
	IsError        bool
	ExternalRefs   []ExternalRef
}

// FileParse is the result of parsing one source file.
type FileParse struct {
	Types []RawType
}

// LanguageExtractor is the per-language front end. Implementations share
// the orchestration in this package and differ only in how they turn
// source bytes into RawType declarations (§4.1 "Per-language parsers share
// the pipeline and differ only in their front-end").
type LanguageExtractor interface {
	// Lang is the canonical language identifier.
	Lang() string

	// Extensions lists the file extensions this front end parses.
	Extensions() []string

	// ManifestFilePattern is a glob matched against the root directory's
	// top-level entries to find the project manifest (§4.2), e.g.
	// "*.csproj" for C#. An empty pattern (the Go front end's) means the
	// language has no manifest and the directory fallback is used.
	ManifestFilePattern() string

	// IsAvailable reports whether this extractor can run in the current
	// environment (e.g. a required external toolchain is installed).
	IsAvailable() (ok bool, unavailableReason string)

	// ParseFile parses one source file's bytes into zero or more RawType
	// declarations. A returned error causes the caller to skip the file
	// (§4.1 "Failure semantics": parse errors are logged and skipped).
	ParseFile(path string, src []byte) (FileParse, error)

	// SystemNamespacePrefixes returns the frozen standard-library root set
	// used by the §4.3 system-assembly filter.
	SystemNamespacePrefixes() []string
}

// Options tunes one extraction run.
type Options struct {
	// MaxWorkers overrides the parser-phase concurrency cap; 0 uses
	// config.MaxParseWorkers's min(cpu, 8) default.
	MaxWorkers int
	// Sink receives recovered (non-fatal) warnings; nil uses diag.Default.
	Sink *diag.Sink
}

// Result is everything the parser phase produces: the merged, classified,
// entry-point-annotated ApiIndex (dependencies not yet filled in — that is
// internal/depresolve's job) plus the external references collected for
// dependency resolution.
type Result struct {
	Index              *core.ApiIndex
	ExternalRefs       []ExternalRef
	FilesParsed        int
	ManifestPackages   []manifest.PackageReference
}

// Extract runs the full parser/extractor pipeline over rootPath using the
// given language front end: canonicalize the path, discover files,
// parse in parallel, merge, classify, and snapshot into an ApiIndex.
func Extract(ctx context.Context, rootPath string, lx LanguageExtractor, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodePathNotFound, "resolving root path", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, apierr.PathNotFound(absRoot)
	}

	sink := opts.Sink
	if sink == nil {
		sink = diag.Default
	}

	files, err := discover.Find(absRoot, lx.Extensions())
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternalError, "discovering source files", err)
	}

	typeMap := core.NewTypeMap()
	extRefs, filesParsed, err := parseAll(ctx, files, lx, typeMap, sink, config.MaxParseWorkers(opts.MaxWorkers))
	if err != nil {
		return nil, err
	}

	// Classification is strictly sequenced after every parse worker has
	// joined (§5 "A memory barrier equivalent to 'all parallel writers
	// completed' is relied upon").
	classified := classify(typeMap)

	manifestInfo := resolveManifest(absRoot, lx, sink)

	index := snapshot(manifestInfo.PackageName, typeMap, classified, manifestInfo.EntryNames)

	return &Result{
		Index:            index,
		ExternalRefs:     extRefs,
		FilesParsed:      filesParsed,
		ManifestPackages: manifestInfo.Packages,
	}, nil
}

// resolveManifest runs the §4.2 entry-point resolver: find and parse the
// project manifest, falling back to the directory leaf name on any
// failure (malformed or missing manifest is a recoverable
// ManifestParseError, §7).
func resolveManifest(absRoot string, lx LanguageExtractor, sink *diag.Sink) manifest.Info {
	path, err := manifest.Find(absRoot, lx.ManifestFilePattern())
	if err != nil || path == "" {
		return manifest.DirFallback(absRoot)
	}

	info, err := manifest.Parse(path)
	if err != nil {
		sink.Warn(string(apierr.CodeManifestParseError), "falling back to directory name for "+path, err)
		return manifest.DirFallback(absRoot)
	}
	if len(info.EntryNames) == 0 || info.PackageName == "" {
		fallback := manifest.DirFallback(absRoot)
		if len(info.EntryNames) == 0 {
			info.EntryNames = fallback.EntryNames
		}
		if info.PackageName == "" {
			info.PackageName = fallback.PackageName
		}
	}
	return info
}

// parseAll fans file parsing out across a bounded worker pool and merges
// every result into typeMap. Mirrors the teacher's jobs-channel +
// WaitGroup worker pool (internal/cli/runner.go).
func parseAll(ctx context.Context, files []string, lx LanguageExtractor, typeMap *core.TypeMap, sink *diag.Sink, workers int) ([]ExternalRef, int, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string)
	results := make(chan parseOutcome)

	var wg sync.WaitGroup
	for range make([]struct{}, workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				src, err := os.ReadFile(path)
				if err != nil {
					results <- parseOutcome{path: path, err: err}
					continue
				}
				fp, err := lx.ParseFile(path, src)
				results <- parseOutcome{path: path, parsed: fp, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- f:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		extRefs     []ExternalRef
		filesParsed int
	)
	for outcome := range results {
		if ctx.Err() != nil {
			return nil, 0, apierr.Cancelled()
		}
		if outcome.err != nil {
			sink.Warn(string(apierr.CodeFileReadError), "skipping file "+outcome.path, outcome.err)
			continue
		}
		filesParsed++
		for _, rt := range outcome.parsed.Types {
			key := core.TypeKey{Namespace: rt.Namespace, Name: rt.Name}
			typeMap.Merge(key, rt.Kind, rt.Doc, rt.RawBases, rt.Members, rt.Values, rt.ReExportedFrom, rt.IsError)
			for _, ref := range rt.ExternalRefs {
				ref.DeclaringNamespace = rt.Namespace
				extRefs = append(extRefs, ref)
			}
		}
	}
	if ctx.Err() != nil {
		return nil, 0, apierr.Cancelled()
	}

	return extRefs, filesParsed, nil
}

type parseOutcome struct {
	path   string
	parsed FileParse
	err    error
}

// snapshot sorts namespaces and types (§3 "every ApiIndex's namespaces is
// sorted by name; within each, types is sorted by name") and builds the
// immutable ApiIndex. packageName is the manifest-derived package identity
// (§3 "identity derived from the manifest or directory name") resolved by
// resolveManifest, already falling back to the root directory's leaf name
// when no manifest supplied one.
func snapshot(packageName string, typeMap *core.TypeMap, classified map[core.TypeKey]classification, entryNames []string) *core.ApiIndex {
	byNamespace := make(map[string][]core.TypeInfo)

	for _, key := range typeMap.Keys() {
		entry := typeMap.Get(key)
		cl := classified[key]
		isEntryPoint := manifest.IsEntryPointNamespace(key.Namespace, entryNames)
		t := entry.Snapshot(cl.base, cl.interfaces, isEntryPoint)
		byNamespace[key.Namespace] = append(byNamespace[key.Namespace], t)
	}

	var namespaces []core.NamespaceInfo
	for name, types := range byNamespace {
		sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
		namespaces = append(namespaces, core.NamespaceInfo{Name: name, Types: types})
	}
	sort.Slice(namespaces, func(i, j int) bool { return namespaces[i].Name < namespaces[j].Name })

	return &core.ApiIndex{
		Package:    packageName,
		Namespaces: namespaces,
	}
}
