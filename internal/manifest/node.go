package manifest

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

// NodeKind discriminates node variants. Adjacency and resolution code treat
// all kinds uniformly; behavior differences hang off Kind and IsExternalNode.
type NodeKind string

const (
	// NodeKindModel is a SQL transformation owned by some project.
	NodeKindModel NodeKind = "model"
	// NodeKindSeed is a raw data load.
	NodeKindSeed NodeKind = "seed"
)

// Access controls who may reference a model.
type Access string

const (
	// AccessPublic models are referenceable from anywhere, including other
	// projects via publication artifacts.
	AccessPublic Access = "public"
	// AccessProtected models are referenceable within the owning project.
	// This is the default.
	AccessProtected Access = "protected"
	// AccessPrivate models are referenceable only within the owning package.
	AccessPrivate Access = "private"
)

// DependsOn holds resolved upstream edges in resolution order.
type DependsOn struct {
	Nodes []string `json:"nodes"`
}

// Node is a single vertex in the manifest graph: a local model parsed from
// the project, or an external model imported from a publication artifact.
// External nodes are read-only and carry no executable SQL body.
type Node struct {
	Kind        NodeKind
	Name        string
	PackageName string
	UniqueID    string
	Access      Access

	Version       string
	LatestVersion string

	// IsExternalNode marks nodes imported from another project's
	// publication artifact.
	IsExternalNode bool
	// SourceProject is the project whose artifact supplied this node.
	// Empty for local nodes.
	SourceProject string
	// GeneratedAt is the publication timestamp for external nodes.
	GeneratedAt time.Time

	// Relation identity.
	RelationName string
	Database     string
	Schema       string
	Identifier   string

	DependsOn DependsOn

	// Local-only fields.
	Description  string
	Materialized string
	Tags         []string
	FilePath     string
	RawSQL       string
	// Refs are the unresolved references extracted from the SQL body, in
	// declaration order.
	Refs []Ref
}

// Ref is an unresolved reference request from a model body:
// ref('name'), ref('project', 'name') or ref('project', 'name', 'version').
type Ref struct {
	Name    string
	Package string
	Version string
}

func (r Ref) String() string {
	switch {
	case r.Package != "" && r.Version != "":
		return fmt.Sprintf("ref('%s', '%s', '%s')", r.Package, r.Name, r.Version)
	case r.Package != "":
		return fmt.Sprintf("ref('%s', '%s')", r.Package, r.Name)
	default:
		return fmt.Sprintf("ref('%s')", r.Name)
	}
}

// ModelUniqueID builds the globally unique id for a model:
// "model.<package>.<name>" with ".v<version>" appended for versioned models.
func ModelUniqueID(packageName, name, version string) string {
	if version != "" {
		return fmt.Sprintf("model.%s.%s.v%s", packageName, name, version)
	}
	return fmt.Sprintf("model.%s.%s", packageName, name)
}

// externalNode materializes a public model from a publication as a foreign
// graph node. Identity and relation metadata are copied verbatim; nothing is
// recomputed locally.
func externalNode(pub *artifact.Publication, pm artifact.PublicModel) *Node {
	return &Node{
		Kind:           NodeKindModel,
		Name:           pm.Name,
		PackageName:    pm.PackageName,
		UniqueID:       pm.UniqueID,
		Access:         AccessPublic,
		Version:        pm.Version,
		LatestVersion:  pm.LatestVersion,
		IsExternalNode: true,
		SourceProject:  pub.ProjectName,
		GeneratedAt:    pm.GeneratedAt,
		RelationName:   pm.RelationName,
		Database:       pm.Database,
		Schema:         pm.Schema,
		Identifier:     pm.Identifier,
		DependsOn:      DependsOn{Nodes: append([]string(nil), pm.PublicNodeDependencies...)},
	}
}
