package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/llm"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			MaxMessages:    memory.DefaultMaxMessages,
			SessionTimeout: memory.DefaultSessionTimeout,
			SweepInterval:  memory.DefaultSweepInterval,
			RetryInterval:  memory.DefaultRetryInterval,
			ContextLength:  memory.DefaultContextLength,
		},
		LLM: LLMConfig{
			Provider:    "groq",
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
		},
		Bots: BotsConfig{
			AlertCooldown: time.Hour,
		},
		Storage: StorageConfig{
			Endpoint: "minio:9000",
			Bucket:   "transcripts",
			Region:   "us-east-1",
		},
	}
}

// Load layers an optional YAML file (BOT_CONFIG_FILE) and then the
// environment over the defaults.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("BOT_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFor(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return nil
}

// apiKeyFor follows the {PROVIDER}_API_KEY convention.
func apiKeyFor(provider string) string {
	switch provider {
	case "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		return "ollama"
	default:
		return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Memory.MaxMessages <= 0 {
		errs = append(errs, fmt.Errorf("memory max_messages must be positive, got %d", c.Memory.MaxMessages))
	}
	if c.Memory.SessionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("memory session_timeout must be positive, got %s", c.Memory.SessionTimeout))
	}
	if c.Memory.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("memory sweep_interval must be positive, got %s", c.Memory.SweepInterval))
	}
	if c.Memory.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("memory retry_interval must be positive, got %s", c.Memory.RetryInterval))
	}

	if !llm.IsKnownProvider(c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER: %s (known: %s)", c.LLM.Provider, strings.Join(llm.KnownProviders(), ", ")))
	} else if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("no API key for provider %s: set LLM_API_KEY or %s_API_KEY", c.LLM.Provider, strings.ToUpper(c.LLM.Provider)))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
