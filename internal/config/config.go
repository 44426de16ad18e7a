package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderCentral = "central"
	ProviderDirect  = "direct"

	ToneLLM      = "llm"
	ToneTemplate = "template"

	SafetyPassthrough = "passthrough"
	SafetyGuard       = "guard"
)

var (
	ErrUnsupportedProvider    = errors.New("unsupported reasoning provider")
	ErrUnsupportedToneAdapter = errors.New("unsupported tone adapter")
	ErrUnsupportedSafetyMode  = errors.New("unsupported safety mode")
	ErrMissingReasoningAPIKey = errors.New("OPENROUTER_API_KEY is required when REASONING_PROVIDER=direct")
	ErrInvalidCentralTimeout  = errors.New("CENTRAL_TIMEOUT must be positive")
	ErrInvalidLLMTimeout      = errors.New("LLM_TIMEOUT must be positive")
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"ENV"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	CentralBackendURL string        `mapstructure:"CENTRAL_BACKEND_URL"`
	CentralAskPath    string        `mapstructure:"CENTRAL_ASK_PATH"`
	CentralTimeout    time.Duration `mapstructure:"CENTRAL_TIMEOUT"`

	ReasoningProvider string        `mapstructure:"REASONING_PROVIDER"`
	OpenRouterAPIKey  string        `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `mapstructure:"OPENROUTER_BASE_URL"`
	OpenRouterModel   string        `mapstructure:"OPENROUTER_MODEL"`
	LLMTimeout        time.Duration `mapstructure:"LLM_TIMEOUT"`
	LLMRateLimitRPM   int           `mapstructure:"LLM_RATE_LIMIT_RPM"`
	LLMRateLimitBurst int           `mapstructure:"LLM_RATE_LIMIT_BURST"`

	ToneAdapter string `mapstructure:"TONE_ADAPTER"`
	ToneAPIKey  string `mapstructure:"TONE_AI_API_KEY"`
	ToneBaseURL string `mapstructure:"TONE_BASE_URL"`
	ToneModel   string `mapstructure:"TONE_MODEL"`
	SafetyMode  string `mapstructure:"SAFETY_MODE"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	DoctorChatID     int64  `mapstructure:"DOCTOR_CHAT_ID"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "MIGRATIONS_PATH",
	"CENTRAL_BACKEND_URL", "CENTRAL_ASK_PATH", "CENTRAL_TIMEOUT",
	"REASONING_PROVIDER", "OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL",
	"LLM_TIMEOUT", "LLM_RATE_LIMIT_RPM", "LLM_RATE_LIMIT_BURST",
	"TONE_ADAPTER", "TONE_AI_API_KEY", "TONE_BASE_URL", "TONE_MODEL", "SAFETY_MODE",
	"TELEGRAM_BOT_TOKEN", "DOCTOR_CHAT_ID",
}

// Load reads configuration from the environment and an optional .env file.
// It does not validate; call Validate before wiring providers.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("CENTRAL_BACKEND_URL", "https://viora-central-backend.onrender.com")
	v.SetDefault("CENTRAL_ASK_PATH", "/doctor/ask-nurse")
	v.SetDefault("CENTRAL_TIMEOUT", "10s")
	v.SetDefault("REASONING_PROVIDER", ProviderCentral)
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "20s")
	v.SetDefault("LLM_RATE_LIMIT_RPM", 60)
	v.SetDefault("LLM_RATE_LIMIT_BURST", 5)
	v.SetDefault("TONE_ADAPTER", ToneLLM)
	v.SetDefault("TONE_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("TONE_MODEL", "gpt-4o-mini")
	v.SetDefault("SAFETY_MODE", SafetyPassthrough)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Missing .env is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// HasDatabase reports whether the interaction log should use Postgres.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasDoctorChannel reports whether escalation reports can be delivered.
func (c *Config) HasDoctorChannel() bool {
	return c.TelegramBotToken != "" && c.DoctorChatID != 0
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	switch c.ReasoningProvider {
	case ProviderCentral:
	case ProviderDirect:
		if c.OpenRouterAPIKey == "" {
			return ErrMissingReasoningAPIKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, c.ReasoningProvider)
	}

	switch c.ToneAdapter {
	case ToneLLM, ToneTemplate:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedToneAdapter, c.ToneAdapter)
	}

	switch c.SafetyMode {
	case SafetyPassthrough, SafetyGuard:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedSafetyMode, c.SafetyMode)
	}

	if c.CentralTimeout <= 0 {
		return ErrInvalidCentralTimeout
	}
	if c.LLMTimeout <= 0 {
		return ErrInvalidLLMTimeout
	}
	return nil
}
