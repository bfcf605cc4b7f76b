// Package apigraph is the public facade composing every pipeline stage
// (§4's four subsystems) into the handful of calls a caller needs:
// Extract, Reachability, AnalyzeUsage, RenderJSON and RenderStubs.
//
// Grounded on the teacher's own top-level package shape (package models /
// package db each expose a small, direct function surface over their
// internal machinery) generalized here into one facade over several
// internal packages, since this module's internal/ split is finer-grained
// than the teacher's.
package apigraph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/depresolve"
	"github.com/termfx/apigraph/internal/diag"
	"github.com/termfx/apigraph/internal/discover"
	"github.com/termfx/apigraph/internal/extract"
	"github.com/termfx/apigraph/internal/extractcache"
	"github.com/termfx/apigraph/internal/format"
	"github.com/termfx/apigraph/internal/lang/csharp"
	"github.com/termfx/apigraph/internal/lang/golang"
	"github.com/termfx/apigraph/internal/reach"
	"github.com/termfx/apigraph/internal/usage"
)

// extractors is the closed registry of supported language front ends.
var extractors = map[string]extract.LanguageExtractor{
	"go":     golang.Extractor{},
	"csharp": csharp.Extractor{},
}

// walkers is the registry of Mode A sample-file walkers, keyed the same
// way as extractors.
var walkers = map[string]usage.SampleWalker{
	"go":     usage.GoWalker{},
	"csharp": usage.CSharpWalker{},
}

// ExtractOptions tunes one Extract call.
type ExtractOptions struct {
	// Lang selects the language front end ("go" or "csharp").
	Lang string
	// MaxWorkers overrides the parse-phase concurrency cap; see
	// extract.Options.MaxWorkers.
	MaxWorkers int
	// CacheDSN, if non-empty, memoizes per-file parses in a
	// internal/extractcache store at this DSN.
	CacheDSN string
	Sink     *diag.Sink
}

// Extract runs the full parser/extractor + dependency-resolver pipeline
// (§4.1–§4.3) over rootPath and returns the resulting ApiIndex.
func Extract(ctx context.Context, rootPath string, opts ExtractOptions) (*core.ApiIndex, error) {
	lx, ok := extractors[opts.Lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", opts.Lang)
	}
	if ok, reason := lx.IsAvailable(); !ok {
		return nil, fmt.Errorf("language %q unavailable: %s", opts.Lang, reason)
	}

	sink := opts.Sink
	if sink == nil {
		sink = diag.Default
	}

	if opts.CacheDSN != "" {
		lx = cachedExtractor{inner: lx, dsn: opts.CacheDSN, sink: sink}
	}

	result, err := extract.Extract(ctx, rootPath, lx, extract.Options{
		MaxWorkers: opts.MaxWorkers,
		Sink:       sink,
	})
	if err != nil {
		return nil, err
	}

	localNames := make(map[string]bool)
	for _, ns := range result.Index.Namespaces {
		for _, t := range ns.Types {
			localNames[t.Name] = true
		}
	}

	refs := make([]depresolve.Ref, len(result.ExternalRefs))
	for i, r := range result.ExternalRefs {
		refs[i] = depresolve.Ref{
			SimpleName:         r.SimpleName,
			Qualifier:          r.Qualifier,
			DeclaringNamespace: r.DeclaringNamespace,
			Kind:               r.Kind,
		}
	}
	result.Index.Dependencies = depresolve.Resolve(refs, localNames, lx.SystemNamespacePrefixes())

	return result.Index, nil
}

// cachedExtractor wraps a LanguageExtractor with internal/extractcache
// memoization keyed on (path, mtime, size, content hash). ParseFile
// doesn't see mtime directly, so the cache key uses size+content hash
// only when an mtime can't be obtained — the content hash alone is
// already sufficient to detect a changed file.
type cachedExtractor struct {
	inner extract.LanguageExtractor
	dsn   string
	sink  *diag.Sink
}

func (c cachedExtractor) Lang() string { return c.inner.Lang() }

func (c cachedExtractor) Extensions() []string { return c.inner.Extensions() }

func (c cachedExtractor) ManifestFilePattern() string { return c.inner.ManifestFilePattern() }

func (c cachedExtractor) IsAvailable() (bool, string) { return c.inner.IsAvailable() }

func (c cachedExtractor) SystemNamespacePrefixes() []string {
	return c.inner.SystemNamespacePrefixes()
}

func (c cachedExtractor) ParseFile(path string, src []byte) (extract.FileParse, error) {
	cache, err := extractcache.Open(c.dsn, false)
	if err != nil {
		c.sink.Warn("CacheUnavailable", "extraction cache disabled for this run", err)
		return c.inner.ParseFile(path, src)
	}
	defer cache.Close()

	var modTimeUnix int64
	if info, err := os.Stat(path); err == nil {
		modTimeUnix = info.ModTime().Unix()
	}

	key := extractcache.Key{
		Path:        path,
		ModTimeUnix: modTimeUnix,
		Size:        int64(len(src)),
		Content:     src,
	}
	if fp, ok := cache.Lookup(key); ok {
		return fp, nil
	}

	fp, err := c.inner.ParseFile(path, src)
	if err != nil {
		return fp, err
	}
	if storeErr := cache.Store(key, fp); storeErr != nil {
		c.sink.Warn("CacheWriteError", "failed to memoize parse result for "+path, storeErr)
	}
	return fp, nil
}

// Reachability runs the §4.4 client-set classifier over index.
func Reachability(index *core.ApiIndex) reach.Result {
	return reach.Analyze(index)
}

// UsageOptions tunes one AnalyzeUsage call.
type UsageOptions struct {
	// Lang selects the Mode A sample walker ("go" or "csharp"); ignored when Helper is set.
	Lang string
	// Helper, if non-empty, switches to Mode B (§4.5): an external helper
	// binary invoked per internal/usage.HelperOptions instead of the
	// native walker.
	Helper               string
	HelperTimeoutSeconds int
}

// AnalyzeUsage runs the §4.5 usage/coverage analyzer over the client set
// against every sample file found under samplesRoot.
func AnalyzeUsage(ctx context.Context, clients []core.TypeInfo, index *core.ApiIndex, samplesRoot string, opts UsageOptions) (core.UsageIndex, error) {
	if opts.Helper != "" {
		var timeout time.Duration
		if opts.HelperTimeoutSeconds > 0 {
			timeout = time.Duration(opts.HelperTimeoutSeconds) * time.Second
		}
		idx, err := usage.RunHelper(ctx, index, usage.HelperOptions{
			HelperPath:  opts.Helper,
			SamplesPath: samplesRoot,
			Timeout:     timeout,
		})
		if err != nil {
			return core.UsageIndex{}, err
		}
		return usage.BackfillSignatures(idx, clients), nil
	}

	walker, ok := walkers[opts.Lang]
	if !ok {
		return core.UsageIndex{}, fmt.Errorf("no sample walker for language %q", opts.Lang)
	}

	paths, err := discover.Find(samplesRoot, walker.Extensions())
	if err != nil {
		return core.UsageIndex{}, err
	}

	files := make(map[string][]byte, len(paths))
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		files[p] = src
	}

	idx := usage.Analyze(clients, files, walker)
	return usage.BackfillSignatures(idx, clients), nil
}

// RenderJSON serializes index as the wire-format JSON described in §3.
func RenderJSON(index *core.ApiIndex) ([]byte, error) {
	return json.MarshalIndent(index, "", "  ")
}

// RenderStubs renders index (optionally in coverage mode) as the compact
// stub text described in §4.6.
func RenderStubs(index *core.ApiIndex, opts format.Options) string {
	return format.RenderStubs(index, opts)
}
