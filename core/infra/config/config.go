package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL  = "http://127.0.0.1:8000/api"
	defaultMetricsAddr = ":9464"
	envAPIBaseURL      = "SENTINEL_API_URL"
	envAPIToken        = "SENTINEL_API_TOKEN"
	envAPITokenFile    = "SENTINEL_API_TOKEN_FILE"
	envRedisURL        = "REDIS_URL"
	envNATSURL         = "NATS_URL"
	envMetricsAddr     = "METRICS_ADDR"
)

// Config holds runtime configuration for the policy console engine. RedisURL
// and NatsURL are optional: empty disables the snapshot cache and the event
// bus respectively.
type Config struct {
	APIBaseURL  string
	APIToken    string
	RedisURL    string
	NatsURL     string
	MetricsAddr string
}

// fileConfig is the YAML shape of an optional config file.
type fileConfig struct {
	API struct {
		BaseURL   string `yaml:"base_url"`
		Token     string `yaml:"token"`
		TokenFile string `yaml:"token_file"`
	} `yaml:"api"`
	Cache struct {
		RedisURL string `yaml:"redis_url"`
	} `yaml:"cache"`
	Events struct {
		NatsURL string `yaml:"nats_url"`
	} `yaml:"events"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// Load returns configuration from the environment with sane defaults.
func Load() *Config {
	cfg := &Config{
		APIBaseURL:  os.Getenv(envAPIBaseURL),
		APIToken:    os.Getenv(envAPIToken),
		RedisURL:    os.Getenv(envRedisURL),
		NatsURL:     os.Getenv(envNATSURL),
		MetricsAddr: os.Getenv(envMetricsAddr),
	}
	if cfg.APIToken == "" {
		if path := os.Getenv(envAPITokenFile); path != "" {
			if token, err := readTokenFile(path); err == nil {
				cfg.APIToken = token
			}
		}
	}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML config file, then applies environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Parse parses config file bytes without applying environment overrides.
func Parse(data []byte) (*Config, error) {
	if err := validateConfigSchema("console", consoleSchemaFile, data); err != nil {
		return nil, err
	}
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg := &Config{
		APIBaseURL:  raw.API.BaseURL,
		APIToken:    raw.API.Token,
		RedisURL:    raw.Cache.RedisURL,
		NatsURL:     raw.Events.NatsURL,
		MetricsAddr: raw.Metrics.ListenAddr,
	}
	if cfg.APIToken == "" && raw.API.TokenFile != "" {
		token, err := readTokenFile(raw.API.TokenFile)
		if err != nil {
			return nil, err
		}
		cfg.APIToken = token
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envAPIBaseURL); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(envAPIToken); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv(envNATSURL); v != "" {
		c.NatsURL = v
	}
	if v := os.Getenv(envMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = defaultMetricsAddr
	}
}

func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
