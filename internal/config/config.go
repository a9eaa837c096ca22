// Package config loads .ralph/config.yaml and the process environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/ralphlabs/ralph/internal/workspace"
	"gopkg.in/yaml.v3"
)

// Config represents the resolved .ralph/config.yaml structure.
type Config struct {
	Engine             string
	Model              string
	ReviewTimeoutMs    int  // 0 means unset
	HasReviewTimeout   bool // distinguishes unset from explicit 0
	GoldenStandardPath string
}

// rawConfig is used for YAML unmarshaling. Pointer fields distinguish
// "not set" (nil) from "set to empty/zero".
type rawConfig struct {
	Engine             *string `yaml:"engine"`
	Model              *string `yaml:"model"`
	ReviewTimeoutMs    *int    `yaml:"reviewTimeoutMs"`
	GoldenStandardPath *string `yaml:"goldenStandardPath"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{Engine: "claude"}
}

// Load reads the project's config file, falling back to defaults when the
// file is absent. A malformed file is an error; a missing one is not.
func Load(projectDir string) (Config, error) {
	cfg := Default()

	path := workspace.Resolve(projectDir).Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if raw.Engine != nil && *raw.Engine != "" {
		cfg.Engine = *raw.Engine
	}
	if raw.Model != nil {
		cfg.Model = *raw.Model
	}
	if raw.ReviewTimeoutMs != nil {
		cfg.ReviewTimeoutMs = *raw.ReviewTimeoutMs
		cfg.HasReviewTimeout = true
	}
	if raw.GoldenStandardPath != nil {
		cfg.GoldenStandardPath = *raw.GoldenStandardPath
	}

	return cfg, nil
}

// LoadEnv loads a .env file from the project directory into the process
// environment if one exists. Values already set in the environment win.
func LoadEnv(projectDir string) {
	_ = godotenv.Load(projectDir + "/.env")
}
