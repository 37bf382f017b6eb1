package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ModelConfig holds everything parsed from a single model file.
type ModelConfig struct {
	// Name is the model name (frontmatter override or filename).
	Name string
	// FilePath is the absolute path to the SQL file.
	FilePath string
	// Description is a human-readable description of the model.
	Description string
	// Access is the model's access level: public, protected (default) or
	// private.
	Access string
	// Version and LatestVersion for versioned models.
	Version       string
	LatestVersion string
	// Materialized defines how the model is stored: view (default) or table.
	Materialized string
	// Tags are metadata labels for filtering/organizing models.
	Tags []string
	// Meta contains custom extension fields.
	Meta map[string]any
	// Refs are the references found in the SQL body, in declaration order.
	Refs []Ref
	// SQL is the model body with frontmatter stripped.
	SQL string
	// RawContent is the full file content including frontmatter.
	RawContent string
	// HasFrontmatter indicates if YAML frontmatter was found.
	HasFrontmatter bool
}

// Scanner parses model files under a models directory.
type Scanner struct {
	baseDir string
}

// NewScanner creates a scanner rooted at the given models directory.
func NewScanner(baseDir string) *Scanner {
	return &Scanner{baseDir: baseDir}
}

// ParseContent parses a model file's content.
func (s *Scanner) ParseContent(filePath string, content []byte) (*ModelConfig, error) {
	raw := string(content)

	fm, err := ExtractFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	name := fm.Config.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	access := fm.Config.Access
	if access == "" {
		access = "protected"
	}

	materialized := fm.Config.Materialized
	if materialized == "" {
		materialized = "view"
	}

	if strings.TrimSpace(fm.SQL) == "" {
		return nil, fmt.Errorf("%s: model has no SQL body", filePath)
	}

	return &ModelConfig{
		Name:           name,
		FilePath:       filePath,
		Description:    fm.Config.Description,
		Access:         access,
		Version:        fm.Config.Version,
		LatestVersion:  fm.Config.LatestVersion,
		Materialized:   materialized,
		Tags:           fm.Config.Tags,
		Meta:           fm.Config.Meta,
		Refs:           ExtractRefs(fm.SQL),
		SQL:            fm.SQL,
		RawContent:     raw,
		HasFrontmatter: fm.HasYAML,
	}, nil
}
