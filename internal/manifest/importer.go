package manifest

import (
	"sort"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

// ImportPublications materializes external nodes from the resolved
// project_name -> artifact mapping: one node per public model, tagged
// IsExternalNode. Any previously imported nodes are fully replaced, never
// merged, so a changed or dropped artifact cannot leave stale lineage behind.
// A collision between an imported unique_id and a local node is fatal.
func (m *Manifest) ImportPublications(resolved map[string]*artifact.Publication) error {
	m.dropExternalNodes()

	m.Publications = make(map[string]*artifact.Publication, len(resolved))
	for name, pub := range resolved {
		m.Publications[name] = pub
	}

	projects := make([]string, 0, len(resolved))
	for name := range resolved {
		projects = append(projects, name)
	}
	sort.Strings(projects)

	for _, name := range projects {
		pub := resolved[name]
		for _, id := range pub.PublicNodeIDs() {
			if err := m.AddNode(externalNode(pub, pub.PublicModels[id])); err != nil {
				return err
			}
		}
	}
	return nil
}

// dropExternalNodes removes every imported node and any adjacency touching it.
func (m *Manifest) dropExternalNodes() {
	external := map[string]bool{}
	for id, n := range m.Nodes {
		if n.IsExternalNode {
			external[id] = true
		}
	}
	if len(external) == 0 {
		return
	}

	for id := range external {
		delete(m.Nodes, id)
		delete(m.ParentMap, id)
		delete(m.ChildMap, id)
	}

	for id, parents := range m.ParentMap {
		m.ParentMap[id] = withoutIDs(parents, external)
	}
	for id, children := range m.ChildMap {
		m.ChildMap[id] = withoutIDs(children, external)
	}
	for _, n := range m.Nodes {
		n.DependsOn.Nodes = withoutIDs(n.DependsOn.Nodes, external)
	}
}

func withoutIDs(ids []string, drop map[string]bool) []string {
	kept := ids[:0]
	for _, id := range ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	return kept
}
