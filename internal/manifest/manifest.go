// Package manifest owns the unified node set for one project run: local
// models parsed from the project plus external nodes imported from upstream
// publication artifacts, with parent/child adjacency derived from resolved
// references.
package manifest

import (
	"sort"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

// Manifest is the assembled graph for one project run.
// It is owned by a single run and mutated by one writer at a time; resolved
// publication artifacts referenced from it are immutable and safe to share.
type Manifest struct {
	// ProjectName is the project this manifest belongs to.
	ProjectName string

	// Nodes maps unique_id to node, local and external alike.
	Nodes map[string]*Node

	// Publications maps project_name to the artifact actually used this run.
	Publications map[string]*artifact.Publication

	// ParentMap and ChildMap are derived adjacency, unique_id to unique_ids
	// in discovery/declaration order. Every endpoint exists in Nodes.
	ParentMap map[string][]string
	ChildMap  map[string][]string
}

// New creates an empty manifest for the given project.
func New(projectName string) *Manifest {
	return &Manifest{
		ProjectName:  projectName,
		Nodes:        map[string]*Node{},
		Publications: map[string]*artifact.Publication{},
		ParentMap:    map[string][]string{},
		ChildMap:     map[string][]string{},
	}
}

// AddNode adds a node under the shared unique_id namespace.
// A collision is a fatal configuration error.
func (m *Manifest) AddNode(n *Node) error {
	if existing, ok := m.Nodes[n.UniqueID]; ok {
		return &DuplicateNodeError{
			UniqueID: n.UniqueID,
			Existing: describeNode(existing),
			Incoming: describeNode(n),
		}
	}
	m.Nodes[n.UniqueID] = n
	return nil
}

// LocalNodes returns all non-external nodes sorted by unique_id.
func (m *Manifest) LocalNodes() []*Node {
	return m.selectNodes(func(n *Node) bool { return !n.IsExternalNode })
}

// ExternalNodes returns all imported nodes sorted by unique_id.
func (m *Manifest) ExternalNodes() []*Node {
	return m.selectNodes(func(n *Node) bool { return n.IsExternalNode })
}

func (m *Manifest) selectNodes(keep func(*Node) bool) []*Node {
	var nodes []*Node
	for _, n := range m.Nodes {
		if keep(n) {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].UniqueID < nodes[j].UniqueID })
	return nodes
}

// recordEdge registers a resolved dependency: child depends on parent.
// Both adjacency directions and the child's DependsOn list are updated,
// preserving resolution order and skipping duplicates.
func (m *Manifest) recordEdge(parentID string, child *Node) {
	if !containsString(child.DependsOn.Nodes, parentID) {
		child.DependsOn.Nodes = append(child.DependsOn.Nodes, parentID)
	}
	if !containsString(m.ParentMap[child.UniqueID], parentID) {
		m.ParentMap[child.UniqueID] = append(m.ParentMap[child.UniqueID], parentID)
	}
	if !containsString(m.ChildMap[parentID], child.UniqueID) {
		m.ChildMap[parentID] = append(m.ChildMap[parentID], child.UniqueID)
	}
}

// FinalizeAdjacency completes the parent/child maps after resolution: every
// node gains an entry, and edges carried by imported nodes (their published
// public_node_dependencies) are materialized where the endpoint exists in
// this manifest. Published dependencies pointing outside the imported set are
// lineage metadata only and produce no edge.
func (m *Manifest) FinalizeAdjacency() {
	for id, n := range m.Nodes {
		if _, ok := m.ParentMap[id]; !ok {
			m.ParentMap[id] = []string{}
		}
		if _, ok := m.ChildMap[id]; !ok {
			m.ChildMap[id] = []string{}
		}
		if !n.IsExternalNode {
			continue
		}
		for _, dep := range n.DependsOn.Nodes {
			if _, ok := m.Nodes[dep]; !ok {
				continue
			}
			if !containsString(m.ParentMap[id], dep) {
				m.ParentMap[id] = append(m.ParentMap[id], dep)
			}
			if !containsString(m.ChildMap[dep], id) {
				m.ChildMap[dep] = append(m.ChildMap[dep], id)
			}
		}
	}
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
