package parser

import "regexp"

// Ref is a reference extracted from a model body. For the two-argument form
// the first argument names either a project (resolved externally through a
// publication) or a local package; the resolver decides which.
type Ref struct {
	Name    string
	Package string
	Version string
}

// refPattern matches ref('name'), ref('project', 'name') and
// ref('project', 'name', 'version') with single or double quotes.
var refPattern = regexp.MustCompile(
	`ref\(\s*['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]+)['"]\s*)?(?:,\s*['"]([^'"]+)['"]\s*)?\)`)

// ExtractRefs returns all references in the SQL body in declaration order.
// Duplicates are preserved; the resolver deduplicates edges.
func ExtractRefs(sql string) []Ref {
	matches := refPattern.FindAllStringSubmatch(sql, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, refFromArgs(m[1], m[2], m[3]))
	}
	return refs
}

// ReplaceRefs substitutes every ref() occurrence using the given resolve
// function, typically mapping a reference to its target's relation name.
// The first resolution error aborts the substitution.
func ReplaceRefs(sql string, resolve func(Ref) (string, error)) (string, error) {
	var firstErr error
	out := refPattern.ReplaceAllStringFunc(sql, func(match string) string {
		if firstErr != nil {
			return match
		}
		m := refPattern.FindStringSubmatch(match)
		replacement, err := resolve(refFromArgs(m[1], m[2], m[3]))
		if err != nil {
			firstErr = err
			return match
		}
		return replacement
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// refFromArgs maps positional ref() arguments to a Ref: a single argument is
// a name; two arguments are package/project then name; three add a version.
func refFromArgs(first, second, third string) Ref {
	if second == "" {
		return Ref{Name: first}
	}
	return Ref{Package: first, Name: second, Version: third}
}
