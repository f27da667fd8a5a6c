package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rate-limit store backends.
const (
	BackendMemory   = "memory"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// APIKeyEnv holds the provider secret. It is never read from the file.
const APIKeyEnv = "AI_GATEWAY_API_KEY"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

type ProviderConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"maxTokens"`
	APIKey      string        `yaml:"-"`
}

type RateLimitConfig struct {
	Max             int           `yaml:"max"`
	Window          time.Duration `yaml:"window"`
	Backend         string        `yaml:"backend"`
	JanitorInterval time.Duration `yaml:"janitorInterval"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load baca file config.yaml, lalu env override. Path kosong berarti default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MetricsAddress:  ":2112",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:     "https://ai.gateway.lovable.dev/v1",
			Model:       "google/gemini-2.5-flash",
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			MaxTokens:   2048,
		},
		RateLimit: RateLimitConfig{
			Max:             10,
			Window:          time.Minute,
			Backend:         BackendMemory,
			JanitorInterval: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{Level: "info", JSON: true},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(APIKeyEnv); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("SYMPTOM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SYMPTOM_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SYMPTOM_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("SYMPTOM_PROVIDER_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("SYMPTOM_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Provider.Timeout = d
		}
	}
	if v := os.Getenv("SYMPTOM_RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Max = n
		}
	}
	if v := os.Getenv("SYMPTOM_RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		}
	}
	if v := os.Getenv("SYMPTOM_RATE_LIMIT_BACKEND"); v != "" {
		cfg.RateLimit.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SYMPTOM_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SYMPTOM_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SYMPTOM_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SYMPTOM_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SYMPTOM_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SYMPTOM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SYMPTOM_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.RateLimit.Max <= 0 {
		return errors.New("rateLimit.max must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rateLimit.window must be positive")
	}
	if c.Provider.Timeout <= 0 {
		return errors.New("provider.timeout must be positive")
	}
	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendMySQL, BackendPostgres:
		if c.Database.Name == "" {
			return fmt.Errorf("rateLimit.backend %s needs database.name", c.RateLimit.Backend)
		}
	default:
		return fmt.Errorf("unknown rateLimit.backend %q", c.RateLimit.Backend)
	}
	return nil
}

// Configured reports whether a provider secret is present.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	port := c.Database.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
