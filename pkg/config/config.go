package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Source struct {
		BaseURL    string        `yaml:"base_url" default:"http://financials.morningstar.com/ajax/exportKR2CSV.html"`
		Exchanges  []string      `yaml:"exchanges" default:"[\"XNAS\",\"XNYS\",\"PINX\"]"`
		Region     string        `yaml:"region" default:"usa"`
		Culture    string        `yaml:"culture" default:"en-US"`
		Timeout    time.Duration `yaml:"timeout" default:"15s"`
		MaxRetries int           `yaml:"max_retries" default:"2"`
		Backoff    time.Duration `yaml:"backoff" default:"500ms"`
		UserAgent  string        `yaml:"user_agent" default:"FinValue/1.0"`
	} `yaml:"source"`
	Profile struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		BaseURL string        `yaml:"base_url" default:"https://finviz.com/quote.ashx"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"profile"`
	Finnhub struct {
		Enabled      bool          `yaml:"enabled"`
		APIKey       string        `yaml:"api_key"`
		WebSocketURL string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		QuoteTimeout time.Duration `yaml:"quote_timeout" default:"5s"`
	} `yaml:"finnhub"`
	Cache struct {
		Type          string        `yaml:"type" default:"memory"`
		TTL           time.Duration `yaml:"ttl" default:"12h"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"500"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"finvalue"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			MinIdle  int    `yaml:"min_idle" default:"2"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"valuation.reports"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		// Reports are queued in memory and written by a background worker.
		PublishBuffer      int           `yaml:"publish_buffer" default:"256"`
		PublishMinInterval time.Duration `yaml:"publish_min_interval" default:"1m"`
		Producer           struct {
			MaxAttempts     int           `yaml:"max_attempts" default:"3"`
			Linger          time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes      int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize       int           `yaml:"batch_size" default:"100"`
			WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
			Async           bool          `yaml:"async"`
			AutoCreateTopic bool          `yaml:"auto_create_topic"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Valuation struct {
		Rate1          float64 `yaml:"rate1" default:"0.08"`
		Rate2          float64 `yaml:"rate2" default:"0.04"`
		Discount       float64 `yaml:"discount" default:"0.1"`
		RiskFreeRate   float64 `yaml:"risk_free_rate" default:"0.025"`
		Growth1        float64 `yaml:"growth1" default:"0.05"`
		Period1        int     `yaml:"period1" default:"5"`
		Growth2        float64 `yaml:"growth2" default:"0.03"`
		Period2        int     `yaml:"period2" default:"5"`
		TerminalGrowth float64 `yaml:"terminal_growth" default:"0.02"`
	} `yaml:"valuation"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
	} `yaml:"rate_limit"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Unset fields take their
// struct defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file falls back to defaults so the binaries run without one.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
		c.Finnhub.Enabled = true
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		c.Cache.Type = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if len(c.Source.Exchanges) == 0 {
		return fmt.Errorf("source.exchanges cannot be empty")
	}
	switch c.Cache.Type {
	case "none", "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be one of none, memory, redis, layered, got '%s'", c.Cache.Type)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	if c.Finnhub.Enabled && c.Finnhub.APIKey == "" {
		return fmt.Errorf("finnhub.api_key is required when finnhub is enabled")
	}
	v := c.Valuation
	if v.Discount <= v.TerminalGrowth {
		return fmt.Errorf("valuation.discount must exceed valuation.terminal_growth")
	}
	if v.Period1 < 1 || v.Period2 < 1 {
		return fmt.Errorf("valuation.period1 and valuation.period2 must be at least 1")
	}
	if v.RiskFreeRate == 0 {
		return fmt.Errorf("valuation.risk_free_rate cannot be zero")
	}
	return nil
}
