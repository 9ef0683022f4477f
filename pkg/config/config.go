package config

import (
	"os"
	"strconv"
	"time"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// SlowQueryMs is the threshold for slow-query warnings.
	SlowQueryMs int `yaml:"slow_query_ms"`
}

type MQConfig struct {
	// URL empty disables event publishing.
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// AIConfig selects the content generation backend.
type AIConfig struct {
	// Provider is genai, menu_service or none.
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MenuServiceURL string `yaml:"menu_service_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	// Backend is memory, redis or postgres.
	Backend string `yaml:"backend"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type CircuitBreakerConfig struct {
	FailureThreshold    int `yaml:"failure_threshold"`
	SuccessThreshold    int `yaml:"success_threshold"`
	TimeoutSeconds      int `yaml:"timeout_seconds"`
	HalfOpenMaxRequests int `yaml:"half_open_max_requests"`
}

func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

func OverrideAIFromEnv(cfg *AIConfig) {
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if model := os.Getenv("AI_MODEL"); model != "" {
		cfg.Model = model
	}
	if url := os.Getenv("MENU_SERVICE_URL"); url != "" {
		cfg.MenuServiceURL = url
	}
}

func OverrideStoreFromEnv(cfg *StoreConfig) {
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
}
