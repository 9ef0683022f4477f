package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"minutri/pkg/circuitbreaker"
	"minutri/pkg/config"
)

type Config struct {
	Server         config.ServerConfig         `yaml:"server"`
	Logging        config.LoggingConfig        `yaml:"logging"`
	Store          config.StoreConfig          `yaml:"store"`
	DB             config.DBConfig             `yaml:"db"`
	Redis          config.RedisConfig          `yaml:"redis"`
	MQ             config.MQConfig             `yaml:"mq"`
	JWT            config.JWTConfig            `yaml:"jwt"`
	AI             config.AIConfig             `yaml:"ai"`
	CircuitBreaker config.CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// Load reads the layered configuration for CONFIG_ENV from CONFIG_DIR and
// applies environment overrides.
func Load() (*Config, error) {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideStoreFromEnv(&cfg.Store)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideAIFromEnv(&cfg.AI)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Store.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.AI.Provider {
	case "none", "":
	case "genai":
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for provider genai")
		}
	case "menu_service":
		if c.AI.MenuServiceURL == "" {
			return fmt.Errorf("ai.menu_service_url is required for provider menu_service")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	return nil
}

func (c *Config) BreakerConfig() circuitbreaker.Config {
	return circuitbreaker.Config{
		FailureThreshold:    c.CircuitBreaker.FailureThreshold,
		SuccessThreshold:    c.CircuitBreaker.SuccessThreshold,
		Timeout:             time.Duration(c.CircuitBreaker.TimeoutSeconds) * time.Second,
		HalfOpenMaxRequests: c.CircuitBreaker.HalfOpenMaxRequests,
	}
}
