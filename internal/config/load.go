package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
)

const (
	// DefaultConfigFile is discovered in the working directory.
	DefaultConfigFile = "spritegen.yaml"
	// PackageManifest is the npm-style manifest carrying an embedded config.
	PackageManifest = "package.json"
	// PackageKey is the manifest key holding the configuration.
	PackageKey = "spritegen_sheets"
)

// Load reads configPath when given, otherwise discovers spritegen.yaml and
// then package.json in dir. A missing configuration is not an error: an empty
// Config is returned so CLI flags can supply everything.
func Load(configPath, dir string) (*Config, error) {
	loadEnvFile(dir)

	if configPath != "" {
		return LoadFile(configPath)
	}

	candidate := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return LoadFile(candidate)
	}

	manifest := filepath.Join(dir, PackageManifest)
	if _, err := os.Stat(manifest); err == nil {
		cfg, found, err := LoadManifest(manifest)
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
	}
	return &Config{}, nil
}

// LoadFile decodes one YAML configuration file, expanding ${VAR} references.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).Fatal().Build()
	}
	return Parse(data, path)
}

// Parse decodes YAML configuration bytes. source is used in error context only.
func Parse(data []byte, source string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
			WithContext("path", source).Fatal().Build()
	}
	return &cfg, nil
}

// LoadManifest extracts the spritegen_sheets key from a package.json file.
// found is false when the manifest has no such key.
func LoadManifest(path string) (cfg *Config, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryConfig, "failed to read package manifest").
			WithContext("path", path).Fatal().Build()
	}
	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryConfig, "failed to parse package manifest").
			WithContext("path", path).Fatal().Build()
	}
	raw, ok := manifest[PackageKey]
	if !ok {
		return nil, false, nil
	}
	// JSON is a YAML subset, so the YAML decoder handles the Source and
	// TemplateSetting unions uniformly.
	cfg, err = Parse(raw, fmt.Sprintf("%s#%s", path, PackageKey))
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

func loadEnvFile(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded env file", logfields.Path(path))
	}
}
