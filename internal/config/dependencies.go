package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectDependency declares a dependency on another project's publication.
// Custom fields beyond name are preserved but not validated.
type ProjectDependency struct {
	Name   string
	Custom map[string]any
}

// UnmarshalYAML keeps unknown fields in Custom.
func (d *ProjectDependency) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	name, _ := raw["name"].(string)
	if name == "" {
		return fmt.Errorf("project dependency is missing a name")
	}
	delete(raw, "name")

	d.Name = name
	if len(raw) > 0 {
		d.Custom = raw
	}
	return nil
}

// dependenciesFile is the on-disk shape of dependencies.yml.
type dependenciesFile struct {
	Projects []ProjectDependency `yaml:"projects"`
}

// LoadDependencies reads the project's dependency declarations from
// dependencies.yml in projectDir. A missing file means no dependencies.
// Duplicate declarations of the same project are rejected.
func LoadDependencies(projectDir string) ([]ProjectDependency, error) {
	path := filepath.Join(projectDir, DependenciesFileName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is rooted at the project dir
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DependenciesFileName, err)
	}

	var f dependenciesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", DependenciesFileName, err)
	}

	seen := map[string]bool{}
	for _, dep := range f.Projects {
		if seen[dep.Name] {
			return nil, fmt.Errorf("%s declares project %q more than once", DependenciesFileName, dep.Name)
		}
		seen[dep.Name] = true
	}

	return f.Projects, nil
}

// DependencyNames returns the declared project names in declaration order.
func DependencyNames(deps []ProjectDependency) []string {
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	return names
}
