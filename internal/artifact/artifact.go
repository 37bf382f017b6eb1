// Package artifact defines the publication artifact: the serialized contract
// describing a project's public model surface at a point in time.
// Artifacts are immutable once constructed and round-trip losslessly through JSON.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion identifies the publication payload schema.
const SchemaVersion = "https://schemas.leapstack.dev/leapmesh/publication/v1.json"

// Quoting holds identifier quoting rules for the publishing project's target.
type Quoting struct {
	Database   bool `json:"database"`
	Schema     bool `json:"schema"`
	Identifier bool `json:"identifier"`
}

// Metadata describes the environment a publication was generated in.
type Metadata struct {
	SchemaVersion   string            `json:"schema_version"`
	LeapmeshVersion string            `json:"leapmesh_version"`
	GeneratedAt     time.Time         `json:"generated_at"`
	InvocationID    string            `json:"invocation_id"`
	Env             map[string]string `json:"env"`
	AdapterType     string            `json:"adapter_type"`
	Quoting         Quoting           `json:"quoting"`
}

// NewMetadata builds metadata for a freshly generated publication.
func NewMetadata(version, adapterType string, quoting Quoting, env map[string]string) Metadata {
	if env == nil {
		env = map[string]string{}
	}
	return Metadata{
		SchemaVersion:   SchemaVersion,
		LeapmeshVersion: version,
		GeneratedAt:     time.Now().UTC(),
		InvocationID:    uuid.New().String(),
		Env:             env,
		AdapterType:     adapterType,
		Quoting:         quoting,
	}
}

// PublicModel is the published view of a single public model.
// It carries only what a consuming project needs for reference resolution
// and lineage: identity, physical relation, and public-only dependencies.
type PublicModel struct {
	Name          string `json:"name"`
	PackageName   string `json:"package_name"`
	UniqueID      string `json:"unique_id"`
	RelationName  string `json:"relation_name"`
	Database      string `json:"database"`
	Schema        string `json:"schema"`
	Identifier    string `json:"identifier"`
	Version       string `json:"version"`
	LatestVersion string `json:"latest_version"`
	// PublicNodeDependencies lists unique_ids of other public models this
	// model depends on. Private lineage is never exposed here.
	PublicNodeDependencies []string  `json:"public_node_dependencies"`
	GeneratedAt            time.Time `json:"generated_at"`
}

// Publication is a project's publication artifact. Identity is ProjectName.
type Publication struct {
	ProjectName  string                 `json:"project_name"`
	Metadata     Metadata               `json:"metadata"`
	PublicModels map[string]PublicModel `json:"public_models"`
	// Dependencies lists upstream project names this publication itself
	// depends on, in declaration order.
	Dependencies []string `json:"dependencies"`
}

// PublicNodeIDs returns the unique_ids of the public models in sorted order.
func (p *Publication) PublicNodeIDs() []string {
	ids := make([]string, 0, len(p.PublicModels))
	for id := range p.PublicModels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Fingerprint identifies a publication for staleness detection. Two artifacts
// with the same fingerprint supply the same external node set: it covers the
// project name, generation timestamp, and the public model identity set.
func (p *Publication) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n", p.ProjectName, p.Metadata.GeneratedAt.UTC().Format(time.RFC3339Nano))
	for _, id := range p.PublicNodeIDs() {
		m := p.PublicModels[id]
		fmt.Fprintf(h, "%s|%s|%s|%s\n", m.UniqueID, m.RelationName, m.Version, m.LatestVersion)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks structural invariants of the artifact: map keys match the
// contained unique_ids, and public_node_dependencies only name models that
// are public in this artifact or belong to another project entirely.
func (p *Publication) Validate() error {
	if p.ProjectName == "" {
		return fmt.Errorf("publication artifact missing project_name")
	}
	for id, m := range p.PublicModels {
		if m.UniqueID != id {
			return fmt.Errorf("public model key %q does not match unique_id %q", id, m.UniqueID)
		}
		if m.PackageName != p.ProjectName {
			return fmt.Errorf("public model %q has package_name %q, want %q", id, m.PackageName, p.ProjectName)
		}
		for _, dep := range m.PublicNodeDependencies {
			if owner := projectOfUniqueID(dep); owner == p.ProjectName {
				if _, ok := p.PublicModels[dep]; !ok {
					return fmt.Errorf("public model %q depends on %q, which is not public in project %q", id, dep, p.ProjectName)
				}
			}
		}
	}
	return nil
}

// projectOfUniqueID extracts the owning project from a unique_id of the form
// "model.<project>.<name>[.v<version>]". Returns "" for malformed ids.
func projectOfUniqueID(uniqueID string) string {
	first := -1
	for i := 0; i < len(uniqueID); i++ {
		if uniqueID[i] == '.' {
			if first == -1 {
				first = i
				continue
			}
			return uniqueID[first+1 : i]
		}
	}
	return ""
}

// Marshal serializes the publication to JSON.
func (p *Publication) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Unmarshal parses a publication payload and validates it.
func Unmarshal(data []byte) (*Publication, error) {
	var p Publication
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid publication payload: %w", err)
	}
	if p.PublicModels == nil {
		p.PublicModels = map[string]PublicModel{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
