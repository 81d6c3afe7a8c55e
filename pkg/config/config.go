package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"CandlePull/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Output    string `yaml:"output"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TLS      bool   `yaml:"tls"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Tokens struct {
		Accounts []string      `yaml:"accounts"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"tokens"`
	Tradovate struct {
		RenewURL          string        `yaml:"renew_url"`
		MarketDataURL     string        `yaml:"market_data_url"`
		HTTPTimeout       time.Duration `yaml:"http_timeout"`
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		Timeout           time.Duration `yaml:"timeout"`
		HistoricalTimeout time.Duration `yaml:"historical_timeout"`
		DefaultSymbol     string        `yaml:"default_symbol"`
		DefaultBars       int           `yaml:"default_bars"`
	} `yaml:"tradovate"`
	Storage struct {
		Type     string `yaml:"type"` // supabase | clickhouse | sqlite
		Supabase struct {
			URL            string        `yaml:"url"`
			ServiceRoleKey string        `yaml:"service_role_key"`
			Timeout        time.Duration `yaml:"timeout"`
		} `yaml:"supabase"`
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		CandlesTopic string   `yaml:"candles_topic"`
		JobsTopic    string   `yaml:"jobs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Scheduler struct {
		Enabled   bool          `yaml:"enabled"`
		Interval  time.Duration `yaml:"interval"`
		Symbol    string        `yaml:"symbol"`
		Schedules []Schedule    `yaml:"schedules"`
	} `yaml:"scheduler"`
}

// Schedule ties a timeframe to how often the scheduler should fetch it.
type Schedule struct {
	Timeframe int           `yaml:"timeframe"`
	Interval  time.Duration `yaml:"interval"`
	Name      string        `yaml:"name"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (if present), then config from YAML, then overrides
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
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
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = util.ParseIntDefault(v, c.Redis.Port)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("TOKEN_ACCOUNTS"); v != "" {
		c.Tokens.Accounts = splitList(v)
	}
	if v := os.Getenv("STORAGE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Storage.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		c.Storage.Supabase.ServiceRoleKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Tokens.TTL == 0 {
		c.Tokens.TTL = time.Hour
	}
	if c.Tradovate.HeartbeatInterval == 0 {
		c.Tradovate.HeartbeatInterval = 2400 * time.Millisecond
	}
	if c.Tradovate.Timeout == 0 {
		c.Tradovate.Timeout = 30 * time.Second
	}
	if c.Tradovate.HistoricalTimeout == 0 {
		c.Tradovate.HistoricalTimeout = 120 * time.Second
	}
	if c.Tradovate.DefaultSymbol == "" {
		c.Tradovate.DefaultSymbol = "MNQZ5"
	}
	if c.Tradovate.DefaultBars == 0 {
		c.Tradovate.DefaultBars = 10
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = time.Minute
	}
	if len(c.Scheduler.Schedules) == 0 {
		c.Scheduler.Schedules = []Schedule{
			{Timeframe: 5, Interval: 5 * time.Minute, Name: "5min"},
			{Timeframe: 15, Interval: 15 * time.Minute, Name: "15min"},
			{Timeframe: 30, Interval: 30 * time.Minute, Name: "30min"},
			{Timeframe: 60, Interval: 60 * time.Minute, Name: "1hour"},
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Tokens.Accounts) == 0 {
		return fmt.Errorf("tokens.accounts cannot be empty")
	}
	if c.Tradovate.RenewURL == "" || c.Tradovate.MarketDataURL == "" {
		return fmt.Errorf("tradovate.renew_url and tradovate.market_data_url are required")
	}
	switch c.Storage.Type {
	case "supabase":
		if c.Storage.Supabase.URL == "" {
			return fmt.Errorf("storage.supabase.url is required")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required")
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required")
		}
	default:
		return fmt.Errorf("storage.type must be 'supabase', 'clickhouse' or 'sqlite', got '%s'", c.Storage.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	for _, s := range c.Scheduler.Schedules {
		if s.Interval <= 0 {
			return fmt.Errorf("scheduler schedule %q needs a positive interval", s.Name)
		}
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
