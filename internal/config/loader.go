package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables used as fallbacks for credentials.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvTavilyKey     = "TAVILY_API_KEY"
)

var configNames = []string{"tandem.yaml", "tandem.yml"}

// Load reads the configuration.
// With an explicit path the file must exist. Otherwise ./tandem.yaml and then
// <user config dir>/tandem/tandem.yaml are tried, and the defaults are used when
// neither exists. A .env file in the working directory is loaded first so it can
// feed ${VAR} references and credential fallbacks.
// It returns the path of the file that was read ("" when none).
func Load(explicitPath string) (*Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("failed to load .env: %w", err)
	}

	path := explicitPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, "", fmt.Errorf("specified config file does not exist: %s", path)
			}
			return nil, "", fmt.Errorf("cannot access config file %s: %w", path, err)
		}
	} else {
		path = findConfigFile()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Parse expands $VAR and ${VAR} references in data and decodes it over cfg,
// so keys absent from data keep their current values.
func Parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("error parsing YAML config: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.Model.APIKey == "" {
		c.Model.APIKey = os.Getenv(EnvOpenAIKey)
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = os.Getenv(EnvOpenAIBaseURL)
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = os.Getenv(EnvTavilyKey)
	}
}

func findConfigFile() string {
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, name := range configNames {
			path := filepath.Join(dir, "tandem", name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
