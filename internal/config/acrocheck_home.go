package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome overrides the acrocheck home directory.
const EnvHome = "ACROCHECK_HOME"

// rootMarker marks the directory whose .acrocheck folder should be used.
const rootMarker = ".acrocheck-root"

// GetHome returns the acrocheck home directory
// Priority order:
//  1. ACROCHECK_HOME environment variable (if set)
//  2. .acrocheck under the nearest ancestor containing .acrocheck-root
//  3. .acrocheck under the current working directory (fallback)
//
// The directory is not created; callers create what they write into.
func GetHome() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if root, ok := findRoot(cwd); ok {
		return filepath.Join(root, ".acrocheck"), nil
	}
	return filepath.Join(cwd, ".acrocheck"), nil
}

// findRoot walks up from dir looking for the root marker file.
func findRoot(dir string) (string, bool) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, rootMarker)); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Load resolves the home directory and loads the config found there,
// then applies environment overrides. An explicit path skips the lookup.
// Relative log_dir and debug_dir values are resolved against the directory
// holding the config, so they do not depend on the working directory.
func Load(explicitPath string) (*Config, error) {
	var (
		cfg  *Config
		base string
		err  error
	)
	if explicitPath != "" {
		cfg, err = LoadConfig(explicitPath)
		base = filepath.Dir(explicitPath)
	} else {
		base, err = GetHome()
		if err != nil {
			return nil, err
		}
		cfg, err = LoadConfigFromDir(base)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.resolvePaths(base); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// resolvePaths makes the log and debug directories absolute against base.
func (c *Config) resolvePaths(base string) error {
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}
	for _, dir := range []*string{&c.LogDir, &c.DebugDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(abs, *dir)
		}
	}
	return nil
}
