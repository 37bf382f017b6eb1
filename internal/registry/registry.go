// Package registry resolves a project's declared dependencies against the
// supplied publication artifacts. It is the configuration-time gate for
// cross-project references: missing artifacts and project-level dependency
// cycles are detected here, before any graph assembly happens.
package registry

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

// PublicationConfigNotFoundError indicates a declared project dependency has
// no matching supplied publication artifact.
type PublicationConfigNotFoundError struct {
	// Project is the declared dependency with no artifact.
	Project string
	// CurrentProject is the project whose dependencies were being resolved.
	CurrentProject string
}

func (e *PublicationConfigNotFoundError) Error() string {
	return fmt.Sprintf("project %q depends on %q, but no publication artifact for %q was supplied",
		e.CurrentProject, e.Project, e.Project)
}

// ProjectDependencyCycleError indicates the transitive project-level
// dependency closure revisits the current project.
type ProjectDependencyCycleError struct {
	// Cycle lists the project names forming the cycle, starting and ending
	// with the current project.
	Cycle []string
}

func (e *ProjectDependencyCycleError) Error() string {
	return fmt.Sprintf("project dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// ProjectRegistry resolves declared dependencies to publication artifacts.
type ProjectRegistry struct {
	currentProject string
	supplied       map[string]*artifact.Publication
}

// New creates a registry for the given project and supplied artifact set.
// The supplied map is keyed by project_name and treated as immutable.
func New(currentProject string, supplied map[string]*artifact.Publication) *ProjectRegistry {
	return &ProjectRegistry{
		currentProject: currentProject,
		supplied:       supplied,
	}
}

// Resolve maps each declared dependency name to its supplied artifact.
// The result contains exactly the declared names, no more and no fewer.
// It fails with PublicationConfigNotFoundError for a declared dependency
// without an artifact, and with ProjectDependencyCycleError when following
// the artifacts' own dependencies edges returns to the current project.
// On failure no partial mapping is returned.
func (r *ProjectRegistry) Resolve(declared []string) (map[string]*artifact.Publication, error) {
	resolved := make(map[string]*artifact.Publication, len(declared))

	for _, name := range declared {
		pub, ok := r.supplied[name]
		if !ok {
			return nil, &PublicationConfigNotFoundError{
				Project:        name,
				CurrentProject: r.currentProject,
			}
		}
		resolved[name] = pub
	}

	if cycle := r.findCycle(declared); cycle != nil {
		return nil, &ProjectDependencyCycleError{Cycle: cycle}
	}

	return resolved, nil
}

// findCycle walks the full transitive closure of project dependencies,
// starting from the current project through its declared dependencies and
// each artifact's own dependencies list. It returns the cycle path if the
// walk revisits the current project, nil otherwise. Projects without a
// supplied artifact terminate their branch: their edges are unknowable here
// and surface later as resolution-time errors instead.
func (r *ProjectRegistry) findCycle(declared []string) []string {
	visited := map[string]bool{}

	var walk func(project string, path []string) []string
	walk = func(project string, path []string) []string {
		var edges []string
		if project == r.currentProject {
			edges = declared
		} else {
			pub, ok := r.supplied[project]
			if !ok {
				return nil
			}
			edges = pub.Dependencies
		}

		for _, next := range edges {
			if next == r.currentProject {
				return append(append(path, project), r.currentProject)
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if cycle := walk(next, append(path, project)); cycle != nil {
				return cycle
			}
		}
		return nil
	}

	return walk(r.currentProject, nil)
}
