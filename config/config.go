package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress      string   `mapstructure:"SERVER_ADDRESS"`       // e.g., ":8080"
	AppEnv             string   `mapstructure:"APP_ENV"`              // "production" switches gin to release mode
	LogMode            string   `mapstructure:"LOG_MODE"`             // "production" for JSON logs
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"` // comma separated in env

	// Refinement Configuration
	RefineProvider      string        `mapstructure:"REFINE_PROVIDER"`        // "gemini" or "openai"
	RefineTimeout       time.Duration `mapstructure:"REFINE_TIMEOUT"`         // upper bound for one refinement call
	RefineRatePerMinute int           `mapstructure:"REFINE_RATE_PER_MINUTE"` // 0 disables pacing
	RefineBurst         int           `mapstructure:"REFINE_BURST"`

	// Gemini
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL string `mapstructure:"GEMINI_BASE_URL"` // empty means the public endpoint

	// OpenAI
	OpenAIKey     string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`

	// Sessions
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var defaults = map[string]interface{}{
	"SERVER_ADDRESS":         ":8080",
	"APP_ENV":                "development",
	"LOG_MODE":               "development",
	"CORS_ALLOWED_ORIGINS":   "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173",
	"REFINE_PROVIDER":        ProviderGemini,
	"REFINE_TIMEOUT":         "30s",
	"REFINE_RATE_PER_MINUTE": 30,
	"REFINE_BURST":           5,
	"GEMINI_API_KEY":         "",
	"GEMINI_MODEL":           "gemini-2.5-flash",
	"GEMINI_BASE_URL":        "",
	"OPENAI_API_KEY":         "",
	"OPENAI_MODEL":           "gpt-4o",
	"OPENAI_BASE_URL":        "",
	"SESSION_TTL":            "30m",
	"SESSION_SWEEP_INTERVAL": "1m",
}

// LoadConfig reads configuration from config.yaml in path (optional) and
// environment variables, which take precedence.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Unmarshal only sees env vars for keys viper already knows about.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.RefineProvider = strings.ToLower(strings.TrimSpace(config.RefineProvider))
	switch config.RefineProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("unknown REFINE_PROVIDER %q (want %q or %q)", config.RefineProvider, ProviderGemini, ProviderOpenAI)
	}
	if config.RefineTimeout <= 0 {
		return Config{}, fmt.Errorf("REFINE_TIMEOUT must be positive, got %s", config.RefineTimeout)
	}

	return config, nil
}

// RefineAPIKey returns the credential of the selected refinement provider.
func (c Config) RefineAPIKey() string {
	if c.RefineProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.GeminiAPIKey
}
