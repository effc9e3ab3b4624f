package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	AI     AIConfig     `yaml:"ai"`
	Index  IndexConfig  `yaml:"index"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins  string        `yaml:"allowed_origins"  env:"SERVER_ALLOWED_ORIGINS"  env-default:"*"`
}

// StoreConfig holds connection settings for the remote data store that owns
// stories, meanings, and lookups.
type StoreConfig struct {
	BaseURL       string        `yaml:"base_url"       env:"STORE_BASE_URL"       env-required:"true"`
	Token         string        `yaml:"token"          env:"STORE_TOKEN"`
	Timeout       time.Duration `yaml:"timeout"        env:"STORE_TIMEOUT"        env-default:"15s"`
	MeaningsLimit int           `yaml:"meanings_limit" env:"STORE_MEANINGS_LIMIT" env-default:"500"`
}

// AIConfig holds the external-resolver credential and model settings used by
// the extraction and resolution stages. The key is deliberately optional:
// its absence is surfaced as a configuration error at call time, not at
// startup, so the rest of the pipeline stays operable.
type AIConfig struct {
	APIKey    string `yaml:"api_key"    env:"AI_API_KEY"`
	Model     string `yaml:"model"      env:"AI_MODEL"      env-default:"claude-sonnet-4-20250514"`
	MaxTokens int    `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2048"`
}

// Configured reports whether the external-resolver credential is present.
func (c AIConfig) Configured() bool {
	return c.APIKey != ""
}

// IndexConfig holds document-index cache settings.
type IndexConfig struct {
	CacheSize int `yaml:"cache_size" env:"INDEX_CACHE_SIZE" env-default:"128"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
