// Package dag provides directed acyclic graph operations over manifest
// nodes, keyed by unique_id. It supports cycle detection and topological
// ordering for model-level execution.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed acyclic graph of unique_ids.
type Graph struct {
	nodes    map[string]struct{}
	children map[string][]string // parent -> dependents
	parents  map[string][]string // child -> dependencies
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]struct{}),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a unique_id to the graph. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = struct{}{}
	g.children[id] = []string{}
	g.parents[id] = []string{}
}

// AddEdge adds a directed edge: child depends on parent. Both endpoints must
// already exist. Duplicate edges are ignored.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("edge endpoint %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("edge endpoint %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.children[parentID], childID) {
		g.children[parentID] = append(g.children[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Has reports whether the unique_id is in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Parents returns the dependencies of a node.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the dependents of a node.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// HasCycle reports whether the graph contains a cycle, along with the cycle
// path for error reporting.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.children[id] {
			if !visited[childID] {
				cameFrom[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	ids := g.sortedIDs()
	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns unique_ids with dependencies before dependents.
// Ties break on lexical order for deterministic output.
func (g *Graph) TopologicalSort() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, id)
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}
	return result, nil
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
