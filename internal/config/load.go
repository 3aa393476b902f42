package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read when present and no explicit env file was given.
const DefaultEnvFile = ".env"

// Sources names the optional files to layer over the defaults.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

// Load builds a Config from defaults, the YAML file, the .env file and the
// environment, in that order, and validates the result.
func Load(src Sources) (*Config, error) {
	cfg := Defaults()

	if src.ConfigFile != "" {
		if err := parseYAML(src.ConfigFile, &cfg); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(src.EnvFile); err != nil {
		return nil, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ParseEnv overlays TASKAUTH_* variables onto target. Unset variables leave
// the existing value alone.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func parseYAML(path string, target *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// loadDotEnv merges an env file into the process environment without
// overriding variables that are already set. An explicit path must exist;
// the default one is optional.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
