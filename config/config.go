package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultTimeoutSeconds = 15

// Config is the top-level configuration for bumper. Every field is optional;
// the zero config bumps requirements.txt and pinned.txt against pypi.org.
type Config struct {
	Index   IndexConfig `yaml:"index"`
	Targets []string    `yaml:"targets"`
}

// IndexConfig describes the package index to consult.
type IndexConfig struct {
	URL            string `yaml:"url"`             // Base URL of the JSON API
	GitHubToken    string `yaml:"github_token"`    // Inline, ${ENV_VAR}, or file path
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Per-request timeout
}

// Timeout returns the per-request timeout as a duration.
func (c IndexConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Index:   IndexConfig{URL: "https://pypi.org/pypi"},
		Targets: []string{"requirements.txt", "pinned.txt"},
	}
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment variables
// and resolving the GitHub token when given as a file path. Missing fields
// fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Index.GitHubToken = resolveToken(cfg.Index.GitHubToken)

	if cfg.Index.URL == "" {
		cfg.Index.URL = Default().Index.URL
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = Default().Targets
	}

	return cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{".", ".config"}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{".bumper.yaml", ".bumper.yml", "bumper.yaml", "bumper.yml"}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
