// Package config provides project configuration for LeapMesh.
// It is decoupled from CLI concerns: the CLI passes flags in, other tools
// can load project configuration directly.
package config

import "fmt"

// ConfigFileName is the name of the project config file.
const ConfigFileName = "leapmesh.yaml"

// ConfigFileNameAlt is the alternate name of the project config file.
const ConfigFileNameAlt = "leapmesh.yml"

// DependenciesFileName declares the project's upstream project dependencies.
const DependenciesFileName = "dependencies.yml"

// QuotingConfig holds identifier quoting rules.
type QuotingConfig struct {
	Database   bool `koanf:"database"`
	Schema     bool `koanf:"schema"`
	Identifier bool `koanf:"identifier"`
}

// Config holds the full project configuration.
type Config struct {
	// Name is the project name. Required: it keys the publication contract.
	Name string `koanf:"name"`

	ProjectDir      string `koanf:"project_dir"`
	ModelsDir       string `koanf:"models_dir"`
	PublicationsDir string `koanf:"publications_dir"`
	TargetDir       string `koanf:"target_dir"`

	// StatePath is the SQLite parse-cache/state database.
	StatePath string `koanf:"state_path"`
	// DatabasePath is the local execution database (":memory:" allowed).
	DatabasePath string `koanf:"database"`

	Database string        `koanf:"database_name"`
	Schema   string        `koanf:"schema"`
	Quoting  QuotingConfig `koanf:"quoting"`

	Verbose bool `koanf:"verbose"`

	// PublicationPaths are explicit artifact files supplied for this run,
	// on top of anything in PublicationsDir.
	PublicationPaths []string `koanf:"publications"`

	// Env is the environment fingerprint recorded in emitted publication
	// metadata, collected from LEAPMESH_ENV_* variables.
	Env map[string]string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultModelsDir       = "models"
	DefaultPublicationsDir = "publications"
	DefaultTargetDir       = "target"
	DefaultStateFile       = ".leapmesh/state.db"
	DefaultDatabaseFile    = ".leapmesh/warehouse.db"
	DefaultSchema          = "main"
)

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("project name is required: set \"name\" in %s", ConfigFileName)
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir is required")
	}
	return nil
}
