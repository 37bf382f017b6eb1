package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

func manifestWithMarketing(t *testing.T) *Manifest {
	t.Helper()
	m := New("test")
	pub := marketingPublication(time.Now().UTC(), "fct_one", "fct_two")
	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": pub}))
	return m
}

func TestResolveRef_External(t *testing.T) {
	m := manifestWithMarketing(t)
	source := localModel("test", "test_model_one", AccessProtected)
	require.NoError(t, m.AddNode(source))

	resolved, err := m.ResolveRef(source, "fct_one", "marketing", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.marketing.fct_one", resolved.UniqueID)
	assert.True(t, resolved.IsExternalNode)

	// Resolution is side-effecting: the edge is recorded on the graph.
	assert.Equal(t, []string{"model.marketing.fct_one"}, source.DependsOn.Nodes)
	assert.Equal(t, []string{"model.marketing.fct_one"}, m.ParentMap["model.test.test_model_one"])
	assert.Equal(t, []string{"model.test.test_model_one"}, m.ChildMap["model.marketing.fct_one"])
}

func TestResolveRef_ExternalWithoutSource(t *testing.T) {
	m := manifestWithMarketing(t)

	resolved, err := m.ResolveRef(nil, "fct_one", "marketing", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.marketing.fct_one", resolved.UniqueID)
	// Pure lookup without a source node records nothing.
	assert.Empty(t, m.ParentMap)
}

func TestResolveRef_RenamedPublicModel(t *testing.T) {
	// The publishing project renamed fct_one to fct_three but the local ref
	// still names fct_one.
	m := New("test")
	pub := marketingPublication(time.Now().UTC(), "fct_three", "fct_two")
	require.NoError(t, m.ImportPublications(map[string]*artifact.Publication{"marketing": pub}))
	source := localModel("test", "test_model_one", AccessProtected)
	require.NoError(t, m.AddNode(source))

	_, err := m.ResolveRef(source, "fct_one", "marketing", "", "test", "test")
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "model.test.test_model_one", notFound.SourceNode)
	assert.Contains(t, err.Error(), "fct_one")

	// Updating the reference to the new name resolves again.
	resolved, err := m.ResolveRef(source, "fct_three", "marketing", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.marketing.fct_three", resolved.UniqueID)
}

func TestResolveRef_DeclaredProjectMissingFromRun(t *testing.T) {
	// "marketing" was declared in a previous run but this run resolved no
	// artifact for it: reference-time mismatch, not a registry error.
	m := New("test")
	source := localModel("test", "test_model_one", AccessProtected)
	require.NoError(t, m.AddNode(source))

	_, err := m.ResolveRef(source, "fct_one", "marketing", "", "test", "test")
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolveRef_Local(t *testing.T) {
	m := New("test")
	one := localModel("test", "model_one", AccessPublic)
	two := localModel("test", "model_two", AccessProtected)
	require.NoError(t, m.AddNode(one))
	require.NoError(t, m.AddNode(two))

	resolved, err := m.ResolveRef(two, "model_one", "", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.test.model_one", resolved.UniqueID)
	assert.Equal(t, []string{"model.test.model_one"}, two.DependsOn.Nodes)
}

func TestResolveRef_AccessRules(t *testing.T) {
	m := New("test")
	private := localModel("pkg_a", "secret", AccessPrivate)
	protected := localModel("pkg_a", "shared", AccessProtected)
	require.NoError(t, m.AddNode(private))
	require.NoError(t, m.AddNode(protected))

	// Private model from a different package is rejected.
	_, err := m.ResolveRef(nil, "secret", "", "", "test", "pkg_b")
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)

	// Same package is allowed.
	resolved, err := m.ResolveRef(nil, "secret", "", "", "test", "pkg_a")
	require.NoError(t, err)
	assert.Equal(t, "model.pkg_a.secret", resolved.UniqueID)

	// Protected resolves within the current project.
	resolved, err = m.ResolveRef(nil, "shared", "", "", "pkg_a", "pkg_b")
	require.NoError(t, err)
	assert.Equal(t, "model.pkg_a.shared", resolved.UniqueID)
}

func TestResolveRef_Ambiguous(t *testing.T) {
	m := New("test")
	require.NoError(t, m.AddNode(localModel("pkg_a", "orders", AccessPublic)))
	require.NoError(t, m.AddNode(localModel("pkg_b", "orders", AccessPublic)))

	source := localModel("test", "downstream", AccessProtected)
	require.NoError(t, m.AddNode(source))

	_, err := m.ResolveRef(source, "orders", "", "", "test", "test")
	var ambiguous *AmbiguousReferenceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"model.pkg_a.orders", "model.pkg_b.orders"}, ambiguous.Candidates)

	// Qualifying the package disambiguates.
	resolved, err := m.ResolveRef(source, "orders", "pkg_a", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.pkg_a.orders", resolved.UniqueID)
}

func TestResolveRef_Versions(t *testing.T) {
	m := New("test")
	v1 := localModel("test", "dim_users", AccessPublic)
	v1.Version = "1"
	v1.LatestVersion = "2"
	v1.UniqueID = ModelUniqueID("test", "dim_users", "1")
	v2 := localModel("test", "dim_users", AccessPublic)
	v2.Version = "2"
	v2.LatestVersion = "2"
	v2.UniqueID = ModelUniqueID("test", "dim_users", "2")
	require.NoError(t, m.AddNode(v1))
	require.NoError(t, m.AddNode(v2))

	// Explicit version.
	resolved, err := m.ResolveRef(nil, "dim_users", "", "1", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.test.dim_users.v1", resolved.UniqueID)

	// Unversioned reference resolves to the latest version.
	resolved, err = m.ResolveRef(nil, "dim_users", "", "", "test", "test")
	require.NoError(t, err)
	assert.Equal(t, "model.test.dim_users.v2", resolved.UniqueID)

	// Unknown version.
	_, err = m.ResolveRef(nil, "dim_users", "", "9", "test", "test")
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
}
