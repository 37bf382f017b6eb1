package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

func marketingPublication(generatedAt time.Time, models ...string) *artifact.Publication {
	pub := &artifact.Publication{
		ProjectName: "marketing",
		Metadata: artifact.Metadata{
			SchemaVersion: artifact.SchemaVersion,
			GeneratedAt:   generatedAt,
		},
		PublicModels: map[string]artifact.PublicModel{},
		Dependencies: []string{},
	}
	for _, name := range models {
		id := ModelUniqueID("marketing", name, "")
		pub.PublicModels[id] = artifact.PublicModel{
			Name:                   name,
			PackageName:            "marketing",
			UniqueID:               id,
			RelationName:           `"analytics"."test_schema"."` + name + `"`,
			Database:               "analytics",
			Schema:                 "test_schema",
			Identifier:             name,
			PublicNodeDependencies: []string{},
			GeneratedAt:            generatedAt,
		}
	}
	return pub
}

func TestImportPublications(t *testing.T) {
	m := New("test")
	pub := marketingPublication(time.Now().UTC(), "fct_one", "fct_two")

	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": pub}))

	externals := m.ExternalNodes()
	require.Len(t, externals, 2)
	for _, n := range externals {
		assert.True(t, n.IsExternalNode)
		assert.Equal(t, "marketing", n.SourceProject)
		assert.Equal(t, AccessPublic, n.Access)
		assert.Empty(t, n.RawSQL, "external nodes carry no compilation body")
	}

	// Relation metadata is copied verbatim from the artifact.
	n := m.Nodes["model.marketing.fct_one"]
	require.NotNil(t, n)
	assert.Equal(t, `"analytics"."test_schema"."fct_one"`, n.RelationName)
	assert.Equal(t, "analytics", n.Database)
	assert.Equal(t, "test_schema", n.Schema)
	assert.Equal(t, "fct_one", n.Identifier)

	assert.Same(t, pub, m.Publications["marketing"])
}

func TestImportPublications_ReplacesNotMerges(t *testing.T) {
	m := New("test")
	first := marketingPublication(time.Now().UTC(), "fct_one", "fct_two")
	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": first}))

	// The publishing project renamed fct_one to fct_three.
	second := marketingPublication(time.Now().UTC().Add(time.Hour), "fct_three", "fct_two")
	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": second}))

	assert.Nil(t, m.Nodes["model.marketing.fct_one"], "stale external node must not survive")
	assert.NotNil(t, m.Nodes["model.marketing.fct_three"])
	assert.Len(t, m.ExternalNodes(), 2)
}

func TestImportPublications_DroppedProjectRemovesNodes(t *testing.T) {
	m := New("test")
	pub := marketingPublication(time.Now().UTC(), "fct_one")
	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": pub}))

	local := localModel("test", "downstream", AccessProtected)
	require.NoError(t, m.AddNode(local))
	m.recordEdge("model.marketing.fct_one", local)

	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{}))

	assert.Empty(t, m.ExternalNodes())
	assert.Empty(t, m.Publications)
	// Edges into the dropped artifact's nodes are gone too.
	assert.Empty(t, local.DependsOn.Nodes)
	assert.Empty(t, m.ParentMap["model.test.downstream"])
}

func TestImportPublications_CollisionWithLocalNode(t *testing.T) {
	m := New("test")
	require.NoError(t, m.AddNode(localModel("marketing", "fct_one", AccessProtected)))

	pub := marketingPublication(time.Now().UTC(), "fct_one")
	err := m.ImportPublications(map[string]*artifact.Publication{"marketing": pub})

	var dup *DuplicateNodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "model.marketing.fct_one", dup.UniqueID)
	assert.Contains(t, err.Error(), "external")
}

func TestFinalizeAdjacency_ExternalLineage(t *testing.T) {
	m := New("test")
	gen := time.Now().UTC()
	pub := marketingPublication(gen, "fct_one", "fct_two")
	// fct_two publicly depends on fct_one, plus one id outside the imported
	// set; the latter is lineage metadata only.
	pm := pub.PublicModels["model.marketing.fct_two"]
	pm.PublicNodeDependencies = []string{"model.marketing.fct_one", "model.ops.fct_elsewhere"}
	pub.PublicModels["model.marketing.fct_two"] = pm

	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": pub}))
	m.FinalizeAdjacency()

	assert.Equal(t, []string{"model.marketing.fct_one"}, m.ParentMap["model.marketing.fct_two"])
	assert.Equal(t, []string{"model.marketing.fct_two"}, m.ChildMap["model.marketing.fct_one"])
	_, exists := m.Nodes["model.ops.fct_elsewhere"]
	assert.False(t, exists)
}
