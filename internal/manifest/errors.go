package manifest

import (
	"fmt"
	"strings"
)

// TargetNotFoundError indicates a reference could not be resolved to any
// node. It names the unresolved reference and the requesting node.
type TargetNotFoundError struct {
	// SourceNode is the unique_id of the requesting node ("" when resolving
	// outside any node, e.g. ad-hoc lookups).
	SourceNode string
	Ref        Ref
}

func (e *TargetNotFoundError) Error() string {
	if e.SourceNode == "" {
		return fmt.Sprintf("%s could not be resolved to any node", e.Ref)
	}
	return fmt.Sprintf("%s in %s could not be resolved to any node", e.Ref, e.SourceNode)
}

// AmbiguousReferenceError indicates a reference matched more than one node.
type AmbiguousReferenceError struct {
	SourceNode string
	Ref        Ref
	// Candidates lists the unique_ids of all matching nodes.
	Candidates []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("%s in %s is ambiguous: candidates %s",
		e.Ref, e.SourceNode, strings.Join(e.Candidates, ", "))
}

// DuplicateNodeError indicates two nodes share a unique_id. This is a fatal
// configuration error: the unique_id namespace spans local and external nodes.
type DuplicateNodeError struct {
	UniqueID string
	// Existing and Incoming describe the colliding nodes ("local model" /
	// "external model from project X").
	Existing string
	Incoming string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node unique_id %q: %s collides with %s",
		e.UniqueID, e.Incoming, e.Existing)
}

// describeNode renders a node for collision error messages.
func describeNode(n *Node) string {
	if n.IsExternalNode {
		return fmt.Sprintf("external %s from project %q", n.Kind, n.SourceProject)
	}
	return fmt.Sprintf("local %s %q", n.Kind, n.Name)
}
