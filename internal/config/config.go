// Package config loads evaluator configuration from file, environment and
// defaults, and validates it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/candidate-evaluator/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. EVALUATOR_LLM_PROVIDER.
const EnvPrefix = "EVALUATOR"

// Config is the full evaluator configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	CatalogPath string `mapstructure:"catalog_path" validate:"omitempty,file"` // bias-probe catalog (yaml)
	RubricPath  string `mapstructure:"rubric_path" validate:"omitempty,file"`  // default rubric (yaml or json)
}

// LLMConfig selects and configures the chat provider.
type LLMConfig struct {
	Provider    string            `mapstructure:"provider" validate:"oneof=gemini openai"`
	APIKey      string            `mapstructure:"api_key"`
	BaseURL     string            `mapstructure:"base_url" validate:"omitempty,url"`
	Models      map[string]string `mapstructure:"models" validate:"dive,keys,oneof=lite standard advanced,endkeys,required"`
	Temperature float32           `mapstructure:"temperature" validate:"gte=0,lte=2"` // rubric scoring temperature
	Timeout     time.Duration     `mapstructure:"timeout" validate:"gte=0"`
}

// DatabaseConfig configures the PostgreSQL store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// PipelineConfig holds orchestrator defaults.
type PipelineConfig struct {
	BiasAudit        bool `mapstructure:"bias_audit"`
	ProbeConcurrency int  `mapstructure:"probe_concurrency" validate:"gte=1,lte=32"`
}

// JobsConfig configures the background job runner.
type JobsConfig struct {
	Workers        int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers default values on v. Every key is registered so
// environment overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", llm.JSONTemperature)
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("database.url", "")
	v.SetDefault("pipeline.bias_audit", true)
	v.SetDefault("pipeline.probe_concurrency", 4)
	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.max_retries", 2)
	v.SetDefault("jobs.initial_backoff", 30*time.Second)
	v.SetDefault("jobs.max_backoff", 5*time.Minute)
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.debug", false)
	v.SetDefault("catalog_path", "")
	v.SetDefault("rubric_path", "")
}

// Load reads configuration into v from path (optional), the environment and
// defaults, then validates it.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("binding DATABASE_URL: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerAPIKey reads the conventional key variable for a provider.
func providerAPIKey(provider string) string {
	switch llm.Provider(provider) {
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// RequireAPIKey reports an error when no LLM credentials were configured.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config error: no API key for provider %s (set llm.api_key or the provider's key variable)", c.LLM.Provider)
	}
	return nil
}

// RequireDatabase reports an error when no database URL was configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config error: database.url is required (or set DATABASE_URL)")
	}
	return nil
}

// LLMClientConfig converts the llm section into gateway configuration,
// starting from the provider's defaults.
func (c *Config) LLMClientConfig() *llm.Config {
	var out *llm.Config
	if llm.Provider(c.LLM.Provider) == llm.ProviderOpenAI {
		out = llm.DefaultOpenAIConfig()
	} else {
		out = llm.DefaultGeminiConfig()
	}

	for tier, model := range c.LLM.Models {
		out = out.WithModel(llm.ModelTier(tier), model)
	}
	if c.LLM.BaseURL != "" {
		out.BaseURL = c.LLM.BaseURL
	}
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	return out
}
