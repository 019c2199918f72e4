package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
)

// Config holds the flexrag configuration.
type Config struct {
	Search   SearchConfig   `yaml:"search"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SearchConfig holds the Azure AI Search connection settings.
type SearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AdminKey   string `yaml:"admin_key"`
	APIVersion string `yaml:"api_version"`
}

// OpenAIConfig holds the Azure OpenAI connection settings.
type OpenAIConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	ChatDeployment string `yaml:"chat_deployment"`
	APIVersion     string `yaml:"api_version"`
}

// PipelineConfig holds the retrieval and generation defaults; CLI flags
// override these per invocation.
type PipelineConfig struct {
	Top               int     `yaml:"top"`
	MaxContextLength  int     `yaml:"max_context_length"`
	SummaryLength     int     `yaml:"summary_length"`
	Temperature       float32 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	VectorNamePattern string  `yaml:"vector_name_pattern"`
	VectorTypePattern string  `yaml:"vector_type_pattern"`
}

// HTTPConfig holds serve-mode HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Environment variables consulted when the YAML config leaves a required
// connection setting empty.
const (
	EnvSearchEndpoint   = "AZURE_SEARCH_ENDPOINT"
	EnvSearchAdminKey   = "AZURE_SEARCH_ADMIN_KEY"
	EnvOpenAIEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvOpenAIAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvOpenAIDeployment = "AZURE_OPENAI_CHAT_DEPLOYMENT"
)

const defaultConfigFile = "flexrag.yaml"

// Load resolves the configuration: optional dotenv file, optional YAML
// file with ${VAR} expansion, environment variables for anything the file
// leaves empty, then defaults and validation. A missing required
// connection setting is a fatal configuration error.
func Load(configPath, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("%w: env file %s: %w", domain.ErrConfiguration, envFile, err)
		}
	}

	var cfg Config
	path, required := resolveConfigPath(configPath)
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case err == nil:
			data = expandEnvVars(data)
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: parse config %s: %w", domain.ErrConfiguration, path, err)
			}
		case required || !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("%w: read config %s: %w", domain.ErrConfiguration, path, err)
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// resolveConfigPath picks the config file: explicit flag, FLEXRAG_CONFIG,
// or the default name in the working directory (optional).
func resolveConfigPath(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if p := os.Getenv("FLEXRAG_CONFIG"); p != "" {
		return p, true
	}
	return defaultConfigFile, false
}

// applyEnv fills empty connection settings from the environment.
func (c *Config) applyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.Search.Endpoint, EnvSearchEndpoint)
	fill(&c.Search.AdminKey, EnvSearchAdminKey)
	fill(&c.OpenAI.Endpoint, EnvOpenAIEndpoint)
	fill(&c.OpenAI.APIKey, EnvOpenAIAPIKey)
	fill(&c.OpenAI.ChatDeployment, EnvOpenAIDeployment)
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Pipeline.Top <= 0 {
		c.Pipeline.Top = 3
	}
	if c.Pipeline.MaxContextLength <= 0 {
		c.Pipeline.MaxContextLength = 1000
	}
	if c.Pipeline.SummaryLength <= 0 {
		c.Pipeline.SummaryLength = 300
	}
	if c.Pipeline.Temperature <= 0 {
		c.Pipeline.Temperature = 0.7
	}
	if c.Pipeline.MaxTokens <= 0 {
		c.Pipeline.MaxTokens = 500
	}
	if c.Pipeline.VectorNamePattern == "" {
		c.Pipeline.VectorNamePattern = "vector"
	}
	if c.Pipeline.VectorTypePattern == "" {
		c.Pipeline.VectorTypePattern = "Collection(Edm.Single)"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation calls are slow; give responses room.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness. Missing connection
// parameters are reported together, wrapped with domain.ErrConfiguration.
func (c *Config) Validate() error {
	var missing []string
	if c.Search.Endpoint == "" {
		missing = append(missing, EnvSearchEndpoint)
	}
	if c.Search.AdminKey == "" {
		missing = append(missing, EnvSearchAdminKey)
	}
	if c.OpenAI.Endpoint == "" {
		missing = append(missing, EnvOpenAIEndpoint)
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, EnvOpenAIAPIKey)
	}
	if c.OpenAI.ChatDeployment == "" {
		missing = append(missing, EnvOpenAIDeployment)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port must be between 1 and 65535, got %d", domain.ErrConfiguration, c.HTTP.Port)
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
