// Package manifest implements the entry-point resolver (§4.2): parsing the
// project manifest XML to derive candidate root-namespace names, and
// classifying which namespaces count as "entry-point namespaces".
//
// XML is decoded with encoding/xml's default decoder, which never expands
// external entities or processes a DOCTYPE-declared DTD — Go's xml.Decoder
// has no entity-expansion facility at all, so the §6 "secure-load contract"
// (entity expansion disabled, DTD processing prohibited) holds without any
// extra configuration. No example repo in this pack imports a third-party
// XML library (the pack's XML-adjacent dependency, hashicorp/hcl, parses
// HCL, not XML) so this is the one ambient concern implemented directly on
// the standard library; see DESIGN.md.
package manifest

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
)

// PackageReference is one <PackageReference Include="..." Version="..."/>
// (or Version as a child element) entry from the manifest.
type PackageReference struct {
	Include string
	Version string
}

// Info holds everything the rest of the pipeline needs from the manifest:
// the candidate entry-point namespace names (§4.2), the package identity
// (§3 "identity derived from the manifest or directory name"), and the
// declared package dependencies (consumed by internal/depresolve, §4.3
// step 1b).
type Info struct {
	EntryNames  []string
	PackageName string
	Packages    []PackageReference
}

// project mirrors the XML shape of a .csproj / .fsproj / .vbproj file.
// Namespaces on elements are ignored per §6 ("matching is by local name"):
// xml.Unmarshal already matches by local name when no namespace is given
// on the Go struct tags, so no special unmarshaling hook is required.
type project struct {
	PropertyGroups []propertyGroup `xml:"PropertyGroup"`
	ItemGroups     []itemGroup     `xml:"ItemGroup"`
}

type propertyGroup struct {
	RootNamespace string `xml:"RootNamespace"`
	PackageId     string `xml:"PackageId"`
	AssemblyName  string `xml:"AssemblyName"`
}

type itemGroup struct {
	PackageReferences []packageReferenceXML `xml:"PackageReference"`
}

type packageReferenceXML struct {
	Include string `xml:"Include,attr"`
	Version string `xml:"Version,attr"`
	VersionElem string `xml:"Version"`
}

// Find locates the manifest file directly under rootDir matching pattern
// (e.g. "*.csproj"). Returns "" if none is found — callers fall back to
// the directory leaf name per §4.2.
func Find(rootDir, pattern string) (string, error) {
	if pattern == "" {
		return "", nil
	}
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			return filepath.Join(rootDir, e.Name()), nil
		}
	}
	return "", nil
}

// Parse reads and parses the manifest at path. A malformed manifest is a
// recoverable ManifestParseError (§7): the caller is expected to fall back
// to DirFallback rather than abort the run.
func Parse(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}

	var p project
	if err := xml.Unmarshal(data, &p); err != nil {
		return Info{}, err
	}

	info := Info{}
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		info.EntryNames = append(info.EntryNames, name)
	}

	for _, pg := range p.PropertyGroups {
		add(pg.RootNamespace)
		add(pg.PackageId)
		add(pg.AssemblyName)
	}

	// Fallback within the manifest itself: the project file stem, e.g.
	// "Acme.Widgets.csproj" -> "Acme.Widgets".
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	add(stem)

	// Package identity prefers PackageId (the published/referenced name),
	// then RootNamespace, then AssemblyName, then the project file stem —
	// the same preference order .NET tooling uses when none of the first
	// three is set.
	for _, pg := range p.PropertyGroups {
		if pg.PackageId != "" {
			info.PackageName = strings.TrimSpace(pg.PackageId)
			break
		}
	}
	if info.PackageName == "" {
		for _, pg := range p.PropertyGroups {
			if pg.RootNamespace != "" {
				info.PackageName = strings.TrimSpace(pg.RootNamespace)
				break
			}
		}
	}
	if info.PackageName == "" {
		for _, pg := range p.PropertyGroups {
			if pg.AssemblyName != "" {
				info.PackageName = strings.TrimSpace(pg.AssemblyName)
				break
			}
		}
	}
	if info.PackageName == "" {
		info.PackageName = stem
	}

	for _, ig := range p.ItemGroups {
		for _, pr := range ig.PackageReferences {
			version := pr.Version
			if version == "" {
				version = pr.VersionElem
			}
			if pr.Include == "" {
				continue
			}
			info.Packages = append(info.Packages, PackageReference{Include: pr.Include, Version: version})
		}
	}

	return info, nil
}

// DirFallback derives entry-point names from just the root directory's leaf
// name, used when no manifest exists (§4.2 "If no manifest exists, use the
// root directory's leaf name") or when Parse failed.
func DirFallback(rootDir string) Info {
	name := filepath.Base(rootDir)
	return Info{EntryNames: []string{name}, PackageName: name}
}

// IsEntryPointNamespace implements the §4.2 classification rule.
func IsEntryPointNamespace(namespace string, entryNames []string) bool {
	for _, entry := range entryNames {
		if strings.EqualFold(namespace, entry) {
			return true
		}
		prefix := entry + "."
		if len(namespace) > len(prefix) && strings.EqualFold(namespace[:len(prefix)], prefix) {
			suffix := namespace[len(prefix):]
			lowerSuffix := strings.ToLower(suffix)
			if strings.Contains(lowerSuffix, "internal") || strings.Contains(lowerSuffix, "implementation") {
				continue
			}
			if strings.Contains(suffix, ".") {
				continue // deeper nesting: supporting-type namespace, not an entry point
			}
			return true
		}
	}
	return false
}
