package engine

// assemble.go builds the manifest for one run: declared project dependencies
// are resolved to publication artifacts, external nodes are imported, local
// models are parsed, and every reference is resolved into graph edges.

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
	"github.com/leapstack-labs/leapmesh/internal/config"
	"github.com/leapstack-labs/leapmesh/internal/dag"
	"github.com/leapstack-labs/leapmesh/internal/manifest"
	"github.com/leapstack-labs/leapmesh/internal/parser"
	"github.com/leapstack-labs/leapmesh/internal/registry"
)

// ParseResult summarizes a manifest assembly.
type ParseResult struct {
	Manifest  *manifest.Manifest
	Discovery *DiscoveryResult
}

// Parse assembles and validates the manifest. Order matters: dependency
// resolution gates importing, importing precedes local parsing, and
// reference resolution runs only over the complete node set. Any failure
// aborts the run with no partial manifest retained.
func (e *Engine) Parse(ctx context.Context) (*ParseResult, error) {
	deps, err := config.LoadDependencies(e.project.ProjectDir)
	if err != nil {
		return nil, err
	}
	declared := config.DependencyNames(deps)

	supplied, err := artifact.LoadDir(e.project.PublicationsDir)
	if err != nil {
		return nil, err
	}
	supplied, err = artifact.LoadFiles(supplied, e.project.PublicationPaths)
	if err != nil {
		return nil, err
	}

	resolved, err := registry.New(e.project.Name, supplied).Resolve(declared)
	if err != nil {
		return nil, err
	}

	current := fingerprints(resolved)
	previous, err := e.store.GetPublicationFingerprints()
	if err != nil {
		return nil, err
	}
	forceRefresh := !maps.Equal(current, previous)
	if forceRefresh {
		e.logger.Debug("publication set changed, forcing full refresh",
			"previous", len(previous), "current", len(current))
	}

	models, discovery, err := e.discoverModels(forceRefresh)
	if err != nil {
		return nil, err
	}

	m := manifest.New(e.project.Name)
	for _, mc := range models {
		if err := m.AddNode(e.localNode(mc)); err != nil {
			return nil, err
		}
	}
	if err := m.ImportPublications(resolved); err != nil {
		return nil, err
	}

	if err := e.resolveReferences(ctx, m); err != nil {
		return nil, err
	}
	m.FinalizeAdjacency()

	graph, err := buildGraph(m)
	if err != nil {
		return nil, err
	}

	if err := e.store.ReplacePublicationFingerprints(current); err != nil {
		return nil, err
	}

	e.manifest = m
	e.graph = graph
	e.declared = declared

	e.logger.Info("manifest assembled",
		"project", e.project.Name,
		"local_nodes", len(m.LocalNodes()),
		"external_nodes", len(m.ExternalNodes()),
		"publications", len(m.Publications))

	return &ParseResult{Manifest: m, Discovery: discovery}, nil
}

// localNode materializes a parsed model file as a manifest node owned by the
// current project.
func (e *Engine) localNode(mc *parser.ModelConfig) *manifest.Node {
	identifier := mc.Name
	if mc.Version != "" {
		identifier = fmt.Sprintf("%s_v%s", mc.Name, mc.Version)
	}

	refs := make([]manifest.Ref, len(mc.Refs))
	for i, r := range mc.Refs {
		refs[i] = manifest.Ref{Name: r.Name, Package: r.Package, Version: r.Version}
	}

	return &manifest.Node{
		Kind:          manifest.NodeKindModel,
		Name:          mc.Name,
		PackageName:   e.project.Name,
		UniqueID:      manifest.ModelUniqueID(e.project.Name, mc.Name, mc.Version),
		Access:        manifest.Access(mc.Access),
		Version:       mc.Version,
		LatestVersion: mc.LatestVersion,
		RelationName:  relationName(e.project.Database, e.project.Schema, identifier, e.project.Quoting),
		Database:      e.project.Database,
		Schema:        e.project.Schema,
		Identifier:    identifier,
		Description:   mc.Description,
		Materialized:  mc.Materialized,
		Tags:          mc.Tags,
		FilePath:      mc.FilePath,
		RawSQL:        mc.SQL,
		Refs:          refs,
	}
}

// relationName renders the fully qualified relation per the quoting rules.
// An empty database or schema part is omitted.
func relationName(database, schema, identifier string, q config.QuotingConfig) string {
	parts := make([]string, 0, 3)
	if database != "" {
		parts = append(parts, quoteIf(database, q.Database))
	}
	if schema != "" {
		parts = append(parts, quoteIf(schema, q.Schema))
	}
	parts = append(parts, quoteIf(identifier, q.Identifier))
	return strings.Join(parts, ".")
}

func quoteIf(s string, quote bool) string {
	if !quote {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// resolveReferences resolves every reference of every local node in two
// phases: a parallel read-only pass surfaces resolution errors early without
// mutating the manifest, then a serial merge records edges in declaration
// order.
func (e *Engine) resolveReferences(ctx context.Context, m *manifest.Manifest) error {
	locals := m.LocalNodes()

	g, ctx := errgroup.WithContext(ctx)
	for _, node := range locals {
		node := node
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, ref := range node.Refs {
				if _, err := m.ResolveRef(nil, ref.Name, ref.Package, ref.Version, m.ProjectName, node.PackageName); err != nil {
					return fmt.Errorf("%s: %w", node.UniqueID, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, node := range locals {
		for _, ref := range node.Refs {
			if _, err := m.ResolveRef(node, ref.Name, ref.Package, ref.Version, m.ProjectName, node.PackageName); err != nil {
				return fmt.Errorf("%s: %w", node.UniqueID, err)
			}
		}
	}
	return nil
}

// buildGraph lifts the manifest adjacency into a DAG and rejects model-level
// cycles.
func buildGraph(m *manifest.Manifest) (*dag.Graph, error) {
	g := dag.New()
	for id := range m.Nodes {
		g.AddNode(id)
	}

	ids := make([]string, 0, len(m.ParentMap))
	for id := range m.ParentMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, parent := range m.ParentMap[id] {
			if err := g.AddEdge(parent, id); err != nil {
				return nil, fmt.Errorf("invalid dependency edge %s -> %s: %w", parent, id, err)
			}
		}
	}

	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("model dependency cycle detected: %s", strings.Join(path, " -> "))
	}
	return g, nil
}

// fingerprints maps each resolved project to its artifact fingerprint.
func fingerprints(resolved map[string]*artifact.Publication) map[string]string {
	out := make(map[string]string, len(resolved))
	for name, pub := range resolved {
		out[name] = pub.Fingerprint()
	}
	return out
}
