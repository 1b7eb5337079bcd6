// Package config provides configuration loading and validation for the
// interview agent.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/interview-coach/internal/llm"
)

// EnvPrefix namespaces environment overrides, e.g. INTERVIEW_SERVER_PORT.
const EnvPrefix = "INTERVIEW"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "interview-agent.yaml"

// Config is the full service configuration. Every field may come from the
// config file, an INTERVIEW_ environment variable or a default.
type Config struct {
	Server        ServerConfig    `mapstructure:"server"`
	Database      DatabaseConfig  `mapstructure:"database"`
	Redis         RedisConfig     `mapstructure:"redis"`
	LLM           LLMConfig       `mapstructure:"llm"`
	Interview     InterviewConfig `mapstructure:"interview"`
	RateLimit     RateLimitConfig `mapstructure:"ratelimit"`
	Log           LogConfig       `mapstructure:"log"`
	PlaybooksFile string          `mapstructure:"playbooks-file"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

// DatabaseConfig configures the durable store.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectRetries int           `mapstructure:"connect-retries"`
	RetryInterval  time.Duration `mapstructure:"retry-interval"`
}

// RedisConfig configures the session cache.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	SessionTTL time.Duration `mapstructure:"session-ttl"`
	MaxIdle    int           `mapstructure:"max-idle"`
}

// LLMConfig configures the text generation service.
type LLMConfig struct {
	APIKey      string            `mapstructure:"api-key"`
	Provider    string            `mapstructure:"provider"`
	Models      map[string]string `mapstructure:"models"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Temperature float32           `mapstructure:"temperature"`
}

// InterviewConfig tunes the interview protocol.
type InterviewConfig struct {
	EstimatedDurationMinutes int `mapstructure:"estimated-duration-minutes"`
	MaxActionItems           int `mapstructure:"max-action-items"`
	ActionItemConcurrency    int `mapstructure:"action-item-concurrency"`
}

// RateLimitConfig configures the HTTP token bucket limiter.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default-limit"`
	DefaultWindow   time.Duration `mapstructure:"default-window"`
	CleanupInterval time.Duration `mapstructure:"cleanup-interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// Defaults registers every default on v.
func Defaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read-timeout", 15*time.Second)
	v.SetDefault("server.write-timeout", 120*time.Second)

	v.SetDefault("database.connect-retries", 30)
	v.SetDefault("database.retry-interval", 2*time.Second)

	v.SetDefault("redis.session-ttl", time.Hour)
	v.SetDefault("redis.max-idle", 10)

	v.SetDefault("llm.provider", string(llmDefaults.Provider))
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.temperature", llmDefaults.Temperature)
	for tier, model := range llmDefaults.Models {
		v.SetDefault("llm.models."+string(tier), model)
	}

	v.SetDefault("interview.estimated-duration-minutes", 45)
	v.SetDefault("interview.max-action-items", 8)
	v.SetDefault("interview.action-item-concurrency", 4)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.default-limit", 60)
	v.SetDefault("ratelimit.default-window", time.Minute)
	v.SetDefault("ratelimit.cleanup-interval", 5*time.Minute)
}

// BindEnv wires INTERVIEW_* overrides plus the conventional bare names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"database.url": {EnvPrefix + "_DATABASE_URL", "DATABASE_URL"},
		"redis.url":    {EnvPrefix + "_REDIS_URL", "REDIS_URL"},
		"llm.api-key":  {EnvPrefix + "_LLM_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals v without validating. Commands that only touch the
// database check what they need themselves.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate runs the startup checks. Credentials and connection strings are
// required; nothing here is silently defaulted.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("config error: redis url is required (REDIS_URL)")
	}
	if !hasAnyPrefix(c.Redis.URL, "redis://", "rediss://") {
		return fmt.Errorf("config error: redis url must start with redis:// or rediss://")
	}

	if err := ValidateAPIKey(c.LLM.APIKey); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: server port %d is out of range", c.Server.Port)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config error: llm timeout must be positive")
	}
	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("config error: redis session ttl must be positive")
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("config error: database connect retries must be at least 1")
	}
	if c.Interview.MaxActionItems < 1 {
		return fmt.Errorf("config error: interview max action items must be at least 1")
	}
	return nil
}

// ValidateDatabase checks the database url alone.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config error: database url is required (DATABASE_URL)")
	}
	if !hasAnyPrefix(c.Database.URL, "postgres://", "postgresql://") {
		return fmt.Errorf("config error: database url must start with postgres:// or postgresql://")
	}
	return nil
}

// ValidateAPIKey rejects a missing key or one still holding a template value.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("config error: llm api key is required (GOOGLE_API_KEY)")
	}
	lower := strings.ToLower(key)
	for _, marker := range []string{"your_", "placeholder"} {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("config error: llm api key looks like a placeholder")
		}
	}
	return nil
}

// LLMClientConfig converts the settings into the llm package config.
func (c *Config) LLMClientConfig() *llm.Config {
	out := llm.DefaultConfig()
	if c.LLM.Provider != "" {
		out.Provider = llm.Provider(c.LLM.Provider)
	}
	for tier, model := range c.LLM.Models {
		if model != "" {
			out = out.WithModel(llm.ModelTier(tier), model)
		}
	}
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.Temperature > 0 {
		out.Temperature = c.LLM.Temperature
	}
	return out
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
