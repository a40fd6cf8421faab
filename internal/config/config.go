package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig      `json:"basic_config"`
	Upstream    UpstreamConfig   `json:"upstream"`
	Generation  GenerationConfig `json:"generation"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	StaticDir     string `json:"static_dir"`
}

// UpstreamConfig points at the model inference endpoint. When GatewayURL is
// set, requests are routed through the gateway instead of BaseURL.
type UpstreamConfig struct {
	BaseURL        string `json:"base_url"`
	GatewayURL     string `json:"gateway_url"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

const DefaultUpstreamTimeout = 60 * time.Second

// Timeout converts the configured seconds into a duration, falling back to the
// default when unset.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return DefaultUpstreamTimeout
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Upstream.BaseURL == "" && cfg.Upstream.GatewayURL == "" {
		return nil, fmt.Errorf("upstream base_url must be configured")
	}
	if cfg.Upstream.Model == "" {
		return nil, fmt.Errorf("upstream model must be configured")
	}

	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if !filepath.IsAbs(cfg.BasicConfig.StaticDir) && cfg.BasicConfig.StaticDir != "" {
		cfg.BasicConfig.StaticDir = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.StaticDir)
	}

	return &cfg, nil
}
