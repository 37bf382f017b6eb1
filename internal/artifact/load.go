package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadFile reads and validates a single publication artifact.
func LoadFile(path string) (*Publication, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config or CLI flags
	if err != nil {
		return nil, fmt.Errorf("failed to read publication %s: %w", path, err)
	}
	p, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("publication %s: %w", path, err)
	}
	return p, nil
}

// LoadDir loads every *.json publication in dir, keyed by project_name.
// A missing directory is not an error: supplying artifacts is optional.
func LoadDir(dir string) (map[string]*Publication, error) {
	pubs := map[string]*Publication{}
	if dir == "" {
		return pubs, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return pubs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read publications directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, ok := pubs[p.ProjectName]; ok && prev.Fingerprint() != p.Fingerprint() {
			return nil, fmt.Errorf("conflicting publications for project %q in %s", p.ProjectName, dir)
		}
		pubs[p.ProjectName] = p
	}

	return pubs, nil
}

// LoadFiles loads explicit artifact paths on top of any directory-supplied
// set. Explicit paths win over directory entries for the same project.
func LoadFiles(base map[string]*Publication, paths []string) (map[string]*Publication, error) {
	pubs := map[string]*Publication{}
	for name, p := range base {
		pubs[name] = p
	}
	for _, path := range paths {
		p, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		pubs[p.ProjectName] = p
	}
	return pubs, nil
}
