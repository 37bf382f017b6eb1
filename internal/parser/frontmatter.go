// Package parser provides model file parsing: YAML frontmatter extraction
// and ref() reference extraction from SQL bodies.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontmatterConfig represents parsed YAML frontmatter.
// Unknown fields cause parse errors (use Meta for extensions).
type FrontmatterConfig struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Access        string         `yaml:"access"` // public, protected, private
	Version       string         `yaml:"-"`
	LatestVersion string         `yaml:"-"`
	Materialized  string         `yaml:"materialized"` // table, view
	Tags          []string       `yaml:"tags"`
	Meta          map[string]any `yaml:"meta"`
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	SQL     string // SQL content after frontmatter
	HasYAML bool
}

// FrontmatterParseError indicates malformed frontmatter YAML.
type FrontmatterParseError struct {
	Message string
}

func (e *FrontmatterParseError) Error() string {
	return e.Message
}

// UnknownFieldError indicates an unrecognized frontmatter field.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown frontmatter field: %q", e.Field)
}

// frontmatterPattern matches /*--- ... ---*/ blocks at the top of a file.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter extracts YAML frontmatter from SQL content.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config: &FrontmatterConfig{},
		SQL:    content,
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if matches == nil || len(matches) < 2 {
		return result, nil
	}

	result.HasYAML = true
	result.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	config, err := parseFrontmatterYAML(matches[1])
	if err != nil {
		return nil, err
	}
	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*FrontmatterConfig, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	knownFields := map[string]bool{
		"name":           true,
		"description":    true,
		"access":         true,
		"version":        true,
		"latest_version": true,
		"materialized":   true,
		"tags":           true,
		"meta":           true,
	}
	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{Field: field}
		}
	}

	var config FrontmatterConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}

	// Versions may be written as bare integers; normalize to strings.
	config.Version = scalarString(rawMap["version"])
	config.LatestVersion = scalarString(rawMap["latest_version"])

	if config.Access != "" {
		switch config.Access {
		case "public", "protected", "private":
		default:
			return nil, &FrontmatterParseError{
				Message: fmt.Sprintf("invalid access %q: must be public, protected or private", config.Access),
			}
		}
	}

	if config.Materialized != "" {
		switch config.Materialized {
		case "table", "view":
		default:
			return nil, &FrontmatterParseError{
				Message: fmt.Sprintf("invalid materialized %q: must be table or view", config.Materialized),
			}
		}
	}

	return &config, nil
}

// scalarString renders a YAML scalar as a string; nil becomes "".
func scalarString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
