package config

import (
	"time"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

type Config struct {
	Memory  MemoryConfig  `yaml:"memory"`
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Bots    BotsConfig    `yaml:"bots"`
	Archive ArchiveConfig `yaml:"archive"`
	Storage StorageConfig `yaml:"storage"`
}

type MemoryConfig struct {
	MaxMessages    int           `yaml:"max_messages" env:"MEMORY_MAX_MESSAGES"`
	SessionTimeout time.Duration `yaml:"session_timeout" env:"MEMORY_SESSION_TIMEOUT"`
	SweepInterval  time.Duration `yaml:"sweep_interval" env:"MEMORY_SWEEP_INTERVAL"`
	SweepSchedule  string        `yaml:"sweep_schedule" env:"MEMORY_SWEEP_SCHEDULE"`
	RetryInterval  time.Duration `yaml:"retry_interval" env:"MEMORY_SWEEP_RETRY"`
	ContextLength  int           `yaml:"context_length" env:"MEMORY_CONTEXT_LENGTH"`
}

func (m MemoryConfig) StoreConfig() memory.Config {
	return memory.Config{
		MaxMessages:    m.MaxMessages,
		SessionTimeout: m.SessionTimeout,
		SweepInterval:  m.SweepInterval,
		SweepSchedule:  m.SweepSchedule,
		RetryInterval:  m.RetryInterval,
	}
}

type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER"`
	APIKey      string  `yaml:"api_key" env:"LLM_API_KEY"`
	Model       string  `yaml:"model" env:"LLM_MODEL"`
	BaseURL     string  `yaml:"base_url" env:"LLM_BASE_URL"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type BotsConfig struct {
	TelegramToken string        `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	DiscordToken  string        `yaml:"discord_token" env:"DISCORD_TOKEN"`
	AdminChatID   int64         `yaml:"admin_chat_id" env:"ADMIN_CHAT_ID"`
	AlertCooldown time.Duration `yaml:"alert_cooldown" env:"ALERT_COOLDOWN"`
}

type ArchiveConfig struct {
	// TranscriptDB is the SQLite path for expired transcripts; empty disables it.
	TranscriptDB string `yaml:"transcript_db" env:"TRANSCRIPT_DB"`
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
	Region    string `yaml:"region" env:"MINIO_REGION"`
}

func (s StorageConfig) Enabled() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}
