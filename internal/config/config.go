package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/speech-steps/backend/internal/models"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	ContentBaseURL string        `env:"CONTENT_BASE_URL" envDefault:"http://localhost:5000"`
	ScoringBaseURL string        `env:"SCORING_BASE_URL" envDefault:"http://localhost:5000"`
	RecordsBaseURL string        `env:"RECORDS_BASE_URL"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	DB        DatabaseConfig
	Telemetry TelemetryConfig

	JWTSecret    string `env:"JWT_SECRET" envDefault:"speech-steps-dev-signing-key"`
	PipelineFile string `env:"PIPELINE_FILE"`

	AssetRoot  string `env:"ASSET_ROOT"`
	AudioExt   string `env:"AUDIO_EXT" envDefault:"m4a"`
	PromptClip string `env:"PROMPT_CLIP" envDefault:"/what_is_this.m4a"`

	NoteEnabled    bool   `env:"NOTE_ENABLED" envDefault:"false"`
	MockNote       bool   `env:"MOCK_NOTE" envDefault:"false"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5"`
}

type DatabaseConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"trainer"`
	Password   string `env:"DB_PASSWORD" envDefault:"trainer"`
	Name       string `env:"DB_NAME" envDefault:"speech_steps"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"speech_steps.db"`
}

// TelemetryConfig points OpenTelemetry export at an OTLP/HTTP collector.
type TelemetryConfig struct {
	Endpoint string `env:"OTEL_ENDPOINT"`
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) AssetPaths() models.AssetPaths {
	return models.AssetPaths{
		Root:       c.AssetRoot,
		AudioExt:   c.AudioExt,
		PromptClip: c.PromptClip,
	}
}

// Pipeline returns the configured activity pipeline: the YAML file when one
// is set, the built-in default otherwise.
func (c *Config) Pipeline() (*Pipeline, error) {
	if c.PipelineFile == "" {
		return DefaultPipeline(), nil
	}
	return LoadPipeline(c.PipelineFile)
}
