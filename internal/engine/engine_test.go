package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
	"github.com/leapstack-labs/leapmesh/internal/config"
	"github.com/leapstack-labs/leapmesh/internal/events"
)

// project is a scratch project on disk for engine tests.
type project struct {
	t    *testing.T
	dir  string
	cfg  *config.Config
	sink *events.Capture
}

func newProject(t *testing.T, name string) *project {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Name:            name,
		ProjectDir:      dir,
		ModelsDir:       filepath.Join(dir, "models"),
		PublicationsDir: filepath.Join(dir, "publications"),
		TargetDir:       filepath.Join(dir, "target"),
		StatePath:       filepath.Join(dir, ".leapmesh", "state.db"),
		DatabasePath:    filepath.Join(dir, ".leapmesh", "warehouse.db"),
		Schema:          "main",
		Quoting:         config.QuotingConfig{Database: true, Schema: true, Identifier: true},
		Env:             map[string]string{},
	}
	require.NoError(t, os.MkdirAll(cfg.ModelsDir, 0o755))

	return &project{t: t, dir: dir, cfg: cfg, sink: events.NewCapture()}
}

func (p *project) newEngine() *Engine {
	p.t.Helper()
	e, err := New(Config{Project: p.cfg, Sink: p.sink})
	require.NoError(p.t, err)
	p.t.Cleanup(func() { _ = e.Close() })
	return e
}

func (p *project) writeModel(name, content string) {
	p.t.Helper()
	require.NoError(p.t, os.WriteFile(filepath.Join(p.cfg.ModelsDir, name+".sql"), []byte(content), 0o644))
}

func (p *project) removeModel(name string) {
	p.t.Helper()
	require.NoError(p.t, os.Remove(filepath.Join(p.cfg.ModelsDir, name+".sql")))
}

func (p *project) writeDependencies(projects ...string) {
	p.t.Helper()
	content := "projects:\n"
	for _, name := range projects {
		content += "  - name: " + name + "\n"
	}
	require.NoError(p.t, os.WriteFile(filepath.Join(p.dir, config.DependenciesFileName), []byte(content), 0o644))
}

func (p *project) writePublication(pub *artifact.Publication) {
	p.t.Helper()
	require.NoError(p.t, os.MkdirAll(p.cfg.PublicationsDir, 0o755))
	data, err := pub.Marshal()
	require.NoError(p.t, err)
	path := filepath.Join(p.cfg.PublicationsDir, pub.ProjectName+"_publication.json")
	require.NoError(p.t, os.WriteFile(path, data, 0o644))
}

// upstreamPublication builds a minimal publication artifact for project
// "marketing" with the given public model names.
func upstreamPublication(generatedAt time.Time, modelNames ...string) *artifact.Publication {
	models := map[string]artifact.PublicModel{}
	for _, name := range modelNames {
		id := "model.marketing." + name
		models[id] = artifact.PublicModel{
			Name:         name,
			PackageName:  "marketing",
			UniqueID:     id,
			RelationName: `"marketing"."main"."` + name + `"`,
			Database:     "marketing",
			Schema:       "main",
			Identifier:   name,
			GeneratedAt:  generatedAt,
		}
	}
	return &artifact.Publication{
		ProjectName: "marketing",
		Metadata: artifact.Metadata{
			SchemaVersion:   artifact.SchemaVersion,
			LeapmeshVersion: Version,
			GeneratedAt:     generatedAt,
			InvocationID:    "a8a2d2b5-8a08-4f0f-9f6a-1f2b3c4d5e6f",
			Env:             map[string]string{},
			AdapterType:     "sqlite",
		},
		PublicModels: models,
	}
}
