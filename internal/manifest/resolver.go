package manifest

import "sort"

// ResolveRef resolves a single reference request to exactly one node.
//
// When pkg names a project present in the manifest's resolved publications,
// the search is restricted to external nodes sourced from that project's
// artifact; only public models exist there by construction. Otherwise the
// search runs over local nodes, applying access rules: public models resolve
// from anywhere, protected models only within currentProject, private models
// only within nodePackage.
//
// Zero matches fail with TargetNotFoundError, multiple matches with
// AmbiguousReferenceError. On success with a non-nil source the edge is
// recorded on the graph: resolution is side-effecting, not a pure query.
//
// A project that was declared but is absent from this run's resolved mapping
// is indistinguishable from an unknown package here and surfaces as
// TargetNotFoundError; registry-level errors are reserved for
// configuration-time mismatches.
func (m *Manifest) ResolveRef(source *Node, name, pkg, version, currentProject, nodePackage string) (*Node, error) {
	ref := Ref{Name: name, Package: pkg, Version: version}

	var candidates []*Node
	if pkg != "" {
		if _, isProject := m.Publications[pkg]; isProject {
			candidates = m.matchExternal(pkg, name, version)
		} else {
			candidates = m.matchLocal(name, pkg, version, currentProject, nodePackage)
		}
	} else {
		candidates = m.matchLocal(name, "", version, currentProject, nodePackage)
	}

	sourceID := ""
	if source != nil {
		sourceID = source.UniqueID
	}

	switch len(candidates) {
	case 0:
		return nil, &TargetNotFoundError{SourceNode: sourceID, Ref: ref}
	case 1:
	default:
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.UniqueID
		}
		sort.Strings(ids)
		return nil, &AmbiguousReferenceError{SourceNode: sourceID, Ref: ref, Candidates: ids}
	}

	target := candidates[0]
	if source != nil {
		m.recordEdge(target.UniqueID, source)
	}
	return target, nil
}

// matchExternal finds external nodes from the given source project by name
// and version.
func (m *Manifest) matchExternal(project, name, version string) []*Node {
	var out []*Node
	for _, n := range m.ExternalNodes() {
		if n.SourceProject != project || n.Name != name {
			continue
		}
		if !versionMatches(n, version) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// matchLocal finds local nodes by name, optional package and version,
// honoring access rules.
func (m *Manifest) matchLocal(name, pkg, version, currentProject, nodePackage string) []*Node {
	var out []*Node
	for _, n := range m.LocalNodes() {
		if n.Name != name {
			continue
		}
		if pkg != "" && n.PackageName != pkg {
			continue
		}
		if !versionMatches(n, version) {
			continue
		}
		if !accessible(n, currentProject, nodePackage) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// versionMatches applies the version selection rule: an explicit version must
// match exactly; an unversioned reference resolves to unversioned nodes, or
// to the latest version of a versioned model.
func versionMatches(n *Node, version string) bool {
	if version != "" {
		return n.Version == version
	}
	if n.Version == "" {
		return true
	}
	return n.LatestVersion != "" && n.Version == n.LatestVersion
}

// accessible applies the standard access rules for local references.
func accessible(n *Node, currentProject, nodePackage string) bool {
	switch n.Access {
	case AccessPublic:
		return true
	case AccessPrivate:
		return n.PackageName == nodePackage
	default: // protected
		return n.PackageName == nodePackage || n.PackageName == currentProject
	}
}
