package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/italolelis/debrid_console/internal/debrid/realdebrid"
	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	RDAPIURL   string `envconfig:"RD_API_URL"`
	RDAPIToken string `envconfig:"RD_API_TOKEN"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath            string `envconfig:"DB_PATH" default:"console.db"`
	SaveDir           string `envconfig:"SAVE_DIR"`
	SaveWithoutAuth   bool   `envconfig:"SAVE_WITHOUT_AUTH"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`

	Console struct {
		Username string `split_words:"true"`
		Password string `split_words:"true"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:8080"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"10m"`
		IdleTimeout     time.Duration `split_words:"true" default:"60s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}

	Telemetry struct {
		Enabled        bool          `split_words:"true" default:"true"`
		ServiceName    string        `split_words:"true" default:"debrid-console"`
		ServiceVersion string        `split_words:"true" default:"dev"`
		OTLPEndpoint   string        `envconfig:"OTLP_ENDPOINT"`
		OTLPInsecure   bool          `envconfig:"OTLP_INSECURE"`
		ExportInterval time.Duration `split_words:"true" default:"1m"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	cfg.RDAPIURL = strings.TrimRight(strings.TrimSpace(cfg.RDAPIURL), "/")
	if cfg.RDAPIURL == "" {
		cfg.RDAPIURL = realdebrid.DefaultBaseURL
	}

	if cfg.Console.Username == "" && cfg.Console.Password != "" {
		return nil, fmt.Errorf("CONSOLE_PASSWORD is set without CONSOLE_USERNAME")
	}

	// saving makes the host fetch caller-supplied URLs, so it needs basic auth
	// unless explicitly opted out of
	if cfg.SaveDir != "" && cfg.Console.Username == "" && !cfg.SaveWithoutAuth {
		return nil, fmt.Errorf("SAVE_DIR requires CONSOLE_USERNAME; set SAVE_WITHOUT_AUTH=true to allow unauthenticated saving")
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
