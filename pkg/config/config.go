package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourceKafka     = "kafka"
	SourceWebSocket = "websocket"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		// CORS lets a dashboard on another origin read the API.
		CORS bool `yaml:"cors"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect struct {
			Enabled     bool          `yaml:"enabled"`
			Interval    time.Duration `yaml:"interval"`
			Threshold   int           `yaml:"threshold"`
			Topic       string        `yaml:"topic"`
			IncludeWarn bool          `yaml:"include_warn"`
		} `yaml:"collect"`
	} `yaml:"log"`
	// Source selects the tick transport: "kafka" or "websocket".
	Source  string `yaml:"source"`
	Cascade struct {
		Symbols            []string      `yaml:"symbols"`
		AutoEnabledDefault bool          `yaml:"auto_enabled_default"`
		AutoWatch          bool          `yaml:"auto_watch"`
		BroadcastInterval  time.Duration `yaml:"broadcast_interval"`
		SnapshotTTL        time.Duration `yaml:"snapshot_ttl"`
		// MaxTicksPerSecond per symbol above which a rate metric fires, 0 disables it.
		MaxTicksPerSecond int `yaml:"max_ticks_per_second"`
	} `yaml:"cascade"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TicksTopic   string   `yaml:"ticks_topic"`
		StatusTopic  string   `yaml:"status_topic"`
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
	Feed struct {
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Cache struct {
		// Layered puts an in-process cache in front of Redis for status reads.
		Layered     bool          `yaml:"layered"`
		MemoryTTL   time.Duration `yaml:"memory_ttl"`
		HistoryTTL  time.Duration `yaml:"history_ttl"`
		MaxMemItems int           `yaml:"max_mem_items"`
	} `yaml:"cache"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
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
	Persist struct {
		QueueName   string        `yaml:"queue_name"`
		Workers     int           `yaml:"workers"`
		MaxRetries  int           `yaml:"max_retries"`
		RetryDelay  time.Duration `yaml:"retry_delay"`
		JobTimeout  time.Duration `yaml:"job_timeout"`
		BreakerOpen time.Duration `yaml:"breaker_open"`
		BreakerTrip uint32        `yaml:"breaker_trip"`
	} `yaml:"persist"`
	RateLimit struct {
		ControlRPS   float64 `yaml:"control_rps"`
		ControlBurst int     `yaml:"control_burst"`
		HistoryRPS   float64 `yaml:"history_rps"`
		HistoryBurst int     `yaml:"history_burst"`
	} `yaml:"rate_limit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then applies
// environment overrides before validation.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Cascade.Symbols = splitList(v)
	}
	if v := os.Getenv("SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TICKS_TOPIC"); v != "" {
		c.Kafka.TicksTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("FEED_TOKEN"); v != "" {
		c.Feed.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
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
	if c.Log.Collect.Topic == "" {
		c.Log.Collect.Topic = "cascade.logs"
	}
	if c.Source == "" {
		c.Source = SourceKafka
	}
	if c.Cascade.BroadcastInterval == 0 {
		c.Cascade.BroadcastInterval = time.Second
	}
	if c.Cascade.SnapshotTTL == 0 {
		c.Cascade.SnapshotTTL = 10 * time.Minute
	}
	if c.Kafka.TicksTopic == "" {
		c.Kafka.TicksTopic = "cascade.ticks"
	}
	if c.Kafka.StatusTopic == "" {
		c.Kafka.StatusTopic = "cascade.status"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "cascadewatch"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "cascade"
	}
	if c.Cache.HistoryTTL == 0 {
		c.Cache.HistoryTTL = 5 * time.Second
	}
	if c.Persist.QueueName == "" {
		c.Persist.QueueName = "cascade:transitions"
	}
	if c.Persist.Workers == 0 {
		c.Persist.Workers = 2
	}
	if c.RateLimit.ControlRPS == 0 {
		c.RateLimit.ControlRPS = 2
	}
	if c.RateLimit.ControlBurst == 0 {
		c.RateLimit.ControlBurst = 5
	}
	if c.RateLimit.HistoryRPS == 0 {
		c.RateLimit.HistoryRPS = 10
	}
	if c.RateLimit.HistoryBurst == 0 {
		c.RateLimit.HistoryBurst = 20
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Source {
	case SourceKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when source is 'kafka'")
		}
	case SourceWebSocket:
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url is required when source is 'websocket'")
		}
	default:
		return fmt.Errorf("source must be 'kafka' or 'websocket', got '%s'", c.Source)
	}
	if len(c.Cascade.Symbols) == 0 && !c.Cascade.AutoWatch {
		return fmt.Errorf("cascade.symbols cannot be empty unless cascade.auto_watch is set")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Cache.Layered && !c.Redis.Enabled {
		return fmt.Errorf("cache.layered requires redis.enabled")
	}
	if c.ClickHouse.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("clickhouse persistence requires redis.enabled for the persist queue")
	}
	if c.Log.Collect.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("log.collect requires redis.enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
