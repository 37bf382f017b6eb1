package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for configuration environment variables.
const envPrefix = "LEAPMESH_"

// envFingerprintPrefix marks variables recorded in publication metadata.
const envFingerprintPrefix = "LEAPMESH_ENV_"

// Load loads project configuration with precedence
// flags > env vars > config file > defaults.
// The flags set may be nil (e.g. for tools without a CLI surface).
func Load(projectDir string, flags *pflag.FlagSet) (*Config, error) {
	if projectDir == "" {
		projectDir, _ = os.Getwd()
	}
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	k := koanf.New(".")

	// Defaults.
	if err := k.Load(confmap.Provider(map[string]any{
		"models_dir":       DefaultModelsDir,
		"publications_dir": DefaultPublicationsDir,
		"target_dir":       DefaultTargetDir,
		"state_path":       DefaultStateFile,
		"database":         DefaultDatabaseFile,
		"schema":           DefaultSchema,
		"quoting": map[string]any{
			"database":   true,
			"schema":     true,
			"identifier": true,
		},
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file (optional).
	if configPath := findConfigFile(absDir); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	// Environment variables: LEAPMESH_MODELS_DIR -> models_dir.
	// Fingerprint variables are collected separately below.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		if strings.HasPrefix(s, envFingerprintPrefix) {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// CLI flags override everything else.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity, the config key is state_path.
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectDir = absDir
	cfg.ModelsDir = resolvePath(cfg.ModelsDir, absDir)
	cfg.PublicationsDir = resolvePath(cfg.PublicationsDir, absDir)
	cfg.TargetDir = resolvePath(cfg.TargetDir, absDir)
	cfg.StatePath = resolvePath(cfg.StatePath, absDir)
	if cfg.DatabasePath != ":memory:" {
		cfg.DatabasePath = resolvePath(cfg.DatabasePath, absDir)
	}
	cfg.Env = fingerprintEnv(os.Environ())

	return &cfg, nil
}

// findConfigFile finds the project config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory containing a
// project config file. Returns "" if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// resolvePath resolves a path relative to baseDir unless absolute or empty.
func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// fingerprintEnv collects LEAPMESH_ENV_* variables into the metadata
// environment fingerprint, keyed without the prefix.
func fingerprintEnv(environ []string) map[string]string {
	out := map[string]string{}
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envFingerprintPrefix) {
			continue
		}
		rest := strings.TrimPrefix(kv, envFingerprintPrefix)
		if i := strings.Index(rest, "="); i > 0 {
			out[rest[:i]] = rest[i+1:]
		}
	}
	return out
}
