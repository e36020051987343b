package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/instrumentation"
)

// Config holds the settings shared by all commands. Every field is bound to a
// flag of the same name and to the matching upper-case environment variable
// (e.g. --calcom-api-key and CALCOM_API_KEY).
type Config struct {
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	CalcomAPIKey   string `mapstructure:"calcom-api-key"`
	CalcomBaseURL  string `mapstructure:"calcom-base-url"`
	CalcomUsername string `mapstructure:"calcom-username"`

	OpenAIAPIKey     string `mapstructure:"openai-api-key"`
	OpenAIBaseURL    string `mapstructure:"openai-base-url"`
	OpenAIModel      string `mapstructure:"openai-model"`
	SystemPromptFile string `mapstructure:"system-prompt-file"`
	MaxToolRounds    int    `mapstructure:"max-tool-rounds"`

	SessionBackend     string        `mapstructure:"session-backend"`
	RedisAddr          string        `mapstructure:"redis-addr"`
	RedisPassword      string        `mapstructure:"redis-password"`
	DatabaseURL        string        `mapstructure:"database-url"`
	SessionTTL         time.Duration `mapstructure:"session-ttl"`
	SkipMigrations     bool          `mapstructure:"skip-migrations"`
	GenerateSessionIDs bool          `mapstructure:"generate-session-ids"`

	HTTPAddr           string  `mapstructure:"http-addr"`
	CORSAllowedOrigins string  `mapstructure:"cors-allowed-origins"`
	ChatRateLimit      float64 `mapstructure:"chat-rate-limit"`
	TrustProxy         bool    `mapstructure:"trust-proxy"`

	MetricsEnabled bool   `mapstructure:"metrics-enabled"`
	MetricsAddr    string `mapstructure:"metrics-addr"`
}

// loadDotEnv loads .env into the process environment. A missing file is not an error.
func loadDotEnv(logger *slog.Logger) error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No .env file found, using environment variables only")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	logger.Debug("Loaded configuration from .env file")
	return nil
}

// loadConfig resolves the configuration of cmd from flags, environment
// variables, and the optional config file, in that order of precedence.
func loadConfig(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// newCalcomClient builds the Cal.com client from cfg.
func newCalcomClient(cfg *Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*calcom.Client, error) {
	return calcom.NewClient(calcom.Config{
		APIKey:   cfg.CalcomAPIKey,
		BaseURL:  cfg.CalcomBaseURL,
		Username: cfg.CalcomUsername,
		Metrics:  metrics,
		Logger:   logger,
	})
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
