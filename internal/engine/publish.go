package engine

// publish.go derives the project's publication artifact from an assembled
// manifest and emits it. Private lineage is summarized away: each public
// model's published dependencies are its nearest public ancestors.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
	"github.com/leapstack-labs/leapmesh/internal/events"
	"github.com/leapstack-labs/leapmesh/internal/manifest"
)

// BuildPublication constructs the publication artifact for the manifest:
// one entry per public local model. A project with no public models still
// publishes a valid, empty contract.
func (e *Engine) BuildPublication(m *manifest.Manifest) *artifact.Publication {
	meta := artifact.NewMetadata(Version, adapterType, artifact.Quoting{
		Database:   e.project.Quoting.Database,
		Schema:     e.project.Quoting.Schema,
		Identifier: e.project.Quoting.Identifier,
	}, e.project.Env)

	models := map[string]artifact.PublicModel{}
	for _, n := range m.LocalNodes() {
		if n.Access != manifest.AccessPublic {
			continue
		}
		models[n.UniqueID] = artifact.PublicModel{
			Name:                   n.Name,
			PackageName:            n.PackageName,
			UniqueID:               n.UniqueID,
			RelationName:           n.RelationName,
			Database:               n.Database,
			Schema:                 n.Schema,
			Identifier:             n.Identifier,
			Version:                n.Version,
			LatestVersion:          n.LatestVersion,
			PublicNodeDependencies: publicAncestors(m, n),
			GeneratedAt:            meta.GeneratedAt,
		}
	}

	return &artifact.Publication{
		ProjectName:  m.ProjectName,
		Metadata:     meta,
		PublicModels: models,
		Dependencies: append([]string(nil), e.declared...),
	}
}

// Publish writes the publication artifact to the target directory and emits
// the availability event. Callers invoke it at most once per run, and only
// after the run fully succeeded.
func (e *Engine) Publish(m *manifest.Manifest) (*artifact.Publication, error) {
	pub := e.BuildPublication(m)
	if err := pub.Validate(); err != nil {
		return nil, fmt.Errorf("generated publication is invalid: %w", err)
	}

	data, err := pub.Marshal()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.project.TargetDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}
	path := filepath.Join(e.project.TargetDir, pub.ProjectName+"_publication.json")
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: artifact is meant to be shared
		return nil, fmt.Errorf("failed to write publication: %w", err)
	}

	e.sink.Publish(events.NewPublicationAvailable(pub))
	e.logger.Info("publication emitted",
		"project", pub.ProjectName,
		"public_models", len(pub.PublicModels),
		"path", path)

	return pub, nil
}

// publicAncestors walks depends_on edges upward through non-public local
// nodes until it reaches public ones. External parents count as public by
// construction. The result is sorted for stable artifacts.
func publicAncestors(m *manifest.Manifest, n *manifest.Node) []string {
	seen := map[string]bool{}
	out := []string{}

	var walk func(id string)
	walk = func(id string) {
		for _, parentID := range m.ParentMap[id] {
			if seen[parentID] {
				continue
			}
			seen[parentID] = true
			parent, ok := m.Nodes[parentID]
			if !ok {
				continue
			}
			if parent.IsExternalNode || parent.Access == manifest.AccessPublic {
				out = append(out, parentID)
				continue
			}
			walk(parentID)
		}
	}
	walk(n.UniqueID)

	sort.Strings(out)
	return out
}
