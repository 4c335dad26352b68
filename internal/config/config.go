// Package config loads service configuration from an optional YAML file
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/example/testhealth/health/backend"
	"github.com/example/testhealth/health/domain"
)

// Config holds the service configuration.
type Config struct {
	AI       AIConfig              `yaml:"ai"`
	DBPath   string                `yaml:"db_path"`
	HTTPAddr string                `yaml:"http_addr"`
	GRPCAddr string                `yaml:"grpc_addr"`
	Log      LogConfig             `yaml:"log"`
	Analysis domain.AnalysisConfig `yaml:"analysis"`
}

// AIConfig selects and configures the AI classification backend.
type AIConfig struct {
	// Token is never read from the config file; set it via environment.
	Token    string `yaml:"-"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		AI: AIConfig{
			Model:    backend.DefaultModel,
			Endpoint: backend.DefaultEndpoint,
		},
		DBPath:   "testhealth.db",
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		Log:      LogConfig{Level: "info", Format: "text"},
		Analysis: domain.DefaultConfig(),
	}
}

// Load reads the config file at path, if any, then applies environment
// overrides. A missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Analysis = cfg.Analysis.WithDefaults()
	if err := cfg.Analysis.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.AI.Token = firstEnv("TESTHEALTH_AI_TOKEN", "GITHUB_TOKEN", "OPENAI_API_KEY")

	if v := os.Getenv("TESTHEALTH_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("TESTHEALTH_AI_ENDPOINT"); v != "" {
		cfg.AI.Endpoint = v
	}
	if v := os.Getenv("TESTHEALTH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TESTHEALTH_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("TESTHEALTH_GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("TESTHEALTH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TESTHEALTH_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TESTHEALTH_AI_CALL_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TESTHEALTH_AI_CALL_CAP: %v", domain.ErrInvalidConfig, err)
		}
		if n < 1 {
			return fmt.Errorf("%w: TESTHEALTH_AI_CALL_CAP must be positive, got %d", domain.ErrInvalidConfig, n)
		}
		cfg.Analysis.AICallCap = n
	}
	return nil
}

// BackendOptions converts the AI section into backend options.
func (c Config) BackendOptions() backend.AIOptions {
	return backend.AIOptions{
		Token:    c.AI.Token,
		Model:    c.AI.Model,
		Endpoint: c.AI.Endpoint,
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
