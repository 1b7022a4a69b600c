package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = "8080"
	defaultBaseURL          = "https://eu-test.oppwa.com"
	defaultAppScheme        = "bbuser"
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

type Config struct {
	Port         string         `yaml:"port"`
	HyperPay     HyperPayConfig `yaml:"hyperpay"`
	RedisURL     string         `yaml:"redis_url"`
	KafkaBrokers []string       `yaml:"kafka_brokers"`
	OTLPEndpoint string         `yaml:"otlp_endpoint"`
	AppScheme    string         `yaml:"app_scheme"`
	Breaker      BreakerConfig  `yaml:"breaker"`
}

type HyperPayConfig struct {
	BaseURL     string `yaml:"base_url"`
	EntityID    string `yaml:"entity_id"`
	BearerToken string `yaml:"bearer_token"`
}

type BreakerConfig struct {
	Threshold uint32        `yaml:"threshold"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// Load reads the YAML file named by CONFIG_PATH, if any, then applies
// environment overrides and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.HyperPay.BaseURL, "HYPERPAY_BASE_URL")
	setString(&c.HyperPay.EntityID, "HYPERPAY_ENTITY_ID")
	setString(&c.HyperPay.BearerToken, "HYPERPAY_BEARER_TOKEN")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.OTLPEndpoint, "OTLP_ENDPOINT")
	setString(&c.AppScheme, "APP_SCHEME")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("BREAKER_THRESHOLD"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid BREAKER_THRESHOLD %q: %w", v, err)
		}
		c.Breaker.Threshold = uint32(n)
	}
	if v := os.Getenv("BREAKER_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BREAKER_COOLDOWN %q: %w", v, err)
		}
		c.Breaker.Cooldown = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.HyperPay.BaseURL == "" {
		c.HyperPay.BaseURL = defaultBaseURL
	}
	if c.AppScheme == "" {
		c.AppScheme = defaultAppScheme
	}
	if c.Breaker.Threshold == 0 {
		c.Breaker.Threshold = defaultBreakerThreshold
	}
	if c.Breaker.Cooldown <= 0 {
		c.Breaker.Cooldown = defaultBreakerCooldown
	}
}

// Validate checks the merchant credentials are present.
func (c *Config) Validate() error {
	var errs []error
	if c.HyperPay.EntityID == "" {
		errs = append(errs, errors.New("HYPERPAY_ENTITY_ID is required"))
	}
	if c.HyperPay.BearerToken == "" {
		errs = append(errs, errors.New("HYPERPAY_BEARER_TOKEN is required"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
