// Package sig holds the signature-string helpers shared by the
// reachability analyzer (§4.4 "Signature tokenization"), the base-type
// classifier and the language front ends: token-boundary-aware identifier extraction, generic-parameter
// stripping, and qualifier trimming.
package sig

import "strings"

// Tokenize splits a signature string into identifier tokens, breaking on
// any non-identifier rune. This is the "token-boundary-aware extractor"
// from §4.4: it never matches a substring of a longer identifier
// ("Policy" never matches inside "PolicyList") because both characters
// flanking a candidate must be non-identifier runes (or string edges).
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if isIdentRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// KnownTokens returns the subset of Tokenize(s) that appear in known,
// deduplicated in encounter order. Used to build a type's referencedTypes
// set (§4.4) and to find types referenced from a member/field's type text.
func KnownTokens(s string, known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(s) {
		if !known[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// StripGenerics removes a trailing "<...>" generic-parameter suffix,
// respecting nested angle brackets, so "Map<K,V>" normalizes to "Map" for
// base-type classification and type-name lookups (§4.1.2).
func StripGenerics(name string) string {
	i := strings.IndexByte(name, '<')
	if i < 0 {
		return name
	}
	return name[:i]
}

// TrimStdlibQualifier removes the whole namespace qualifier from a dotted,
// qualified name whose qualifier starts with a standard-library root
// (dots inside a generic-argument suffix are left alone), e.g. "System.Threading.Tasks.Task"
// with prefixes=["System"] becomes "Task". Only ever applied to the left of
// a qualified-name node during AST-walking normalization (§4.1.3, §9); this
// helper does not do its own AST traversal — language front ends call it
// once per qualified-name node they visit, never as a blanket
// strings.Replace over a whole signature string (the open question in §9
// explicitly forbids the string-based variant).
func TrimStdlibQualifier(qualified string, stdlibPrefixes []string) string {
	for _, prefix := range stdlibPrefixes {
		dotted := prefix + "."
		if strings.HasPrefix(qualified, dotted) {
			head := qualified
			if i := strings.IndexByte(head, '<'); i >= 0 {
				head = head[:i]
			}
			return qualified[strings.LastIndexByte(head, '.')+1:]
		}
	}
	return qualified
}

// CollapseDefault renders a parameter default-value expression per
// §4.1.3: shown verbatim when ≤20 characters, else collapsed to "…".
func CollapseDefault(expr string) string {
	if len([]rune(expr)) <= 20 {
		return expr
	}
	return "…"
}

// CollapseConstValue renders a const literal per §4.1.3: shown verbatim
// when ≤30 characters, else omitted entirely by the caller.
func CollapseConstValue(expr string) (string, bool) {
	if len([]rune(expr)) <= 30 {
		return expr, true
	}
	return "", false
}
