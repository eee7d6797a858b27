package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pkgcache "SymDir/pkg/cache"
	"SymDir/pkg/clickhouse"
	"SymDir/pkg/kafka"
	xutil "SymDir/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory     = "memory"
	StoreClickHouse = "clickhouse"

	TransportNone  = "none"
	TransportKafka = "kafka"
	TransportRedis = "redis"
)

// Config is the full service configuration.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	InstanceID  string `yaml:"instance_id"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"5s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Store struct {
		Backend  string `yaml:"backend" default:"memory" validate:"oneof=memory clickhouse"`
		SeedFile string `yaml:"seed_file"`
	} `yaml:"store"`
	ClickHouse clickhouse.Config `yaml:"clickhouse"`
	Cache      struct {
		FrequentCapacity int           `yaml:"frequent_capacity" default:"500" validate:"gte=1"`
		FrequentPolicy   string        `yaml:"frequent_policy" default:"fixed" validate:"oneof=fixed lru"`
		SymbolCapacity   int           `yaml:"symbol_capacity" default:"10000" validate:"gte=1"`
		SymbolTTL        time.Duration `yaml:"symbol_ttl" default:"30m"`
		SearchCapacity   int           `yaml:"search_capacity" default:"1000" validate:"gte=1"`
		SearchTTL        time.Duration `yaml:"search_ttl" default:"5m"`
		StatsInterval    time.Duration `yaml:"stats_interval" default:"30s"`
	} `yaml:"cache"`
	Warm struct {
		Enabled     bool     `yaml:"enabled" default:"true"`
		OnStartup   bool     `yaml:"on_startup" default:"true"`
		Schedule    string   `yaml:"schedule" default:"0 8 * * 1-5"`
		Underlyings []string `yaml:"underlyings"`
		TopEquities int      `yaml:"top_equities" default:"200" validate:"gte=0,lte=1000"`
		Concurrency int      `yaml:"concurrency" default:"4" validate:"gte=1"`
	} `yaml:"warm"`
	Invalidation struct {
		Transport string `yaml:"transport" default:"none" validate:"oneof=none kafka redis"`
		Channel   string `yaml:"channel" default:"symdir:invalidations"`
	} `yaml:"invalidation"`
	Kafka     kafka.Config         `yaml:"kafka"`
	Redis     pkgcache.RedisConfig `yaml:"redis"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"50"`
		Burst   int     `yaml:"burst" default:"100"`
	} `yaml:"ratelimit"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. Missing keys take their
// struct-tag defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("STORE_BACKEND"); ok && v != "" {
		c.Store.Backend = v
	}
	if v, ok := lookup("CLICKHOUSE_HOST"); ok && v != "" {
		c.ClickHouse.Host = v
	}
	if v, ok := lookup("CLICKHOUSE_PASSWORD"); ok {
		c.ClickHouse.Password = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = xutil.SplitCSV(v)
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("INVALIDATION_TRANSPORT"); ok && v != "" {
		c.Invalidation.Transport = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("WARM_UNDERLYINGS"); ok && v != "" {
		c.Warm.Underlyings = xutil.SplitCSV(strings.ToUpper(v))
	}
	if v, ok := lookup("INSTANCE_ID"); ok && v != "" {
		c.InstanceID = v
	}
}

// Validate checks field rules and the cross-field requirements of the
// selected backends.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Store.Backend == StoreClickHouse && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required for the clickhouse store")
	}
	if c.Invalidation.Transport == TransportKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required for kafka invalidation")
	}
	if c.Invalidation.Transport == TransportRedis && c.Redis.Addr == "" {
		return errors.New("redis.addr is required for redis invalidation")
	}
	if c.Cache.SymbolTTL <= 0 || c.Cache.SearchTTL <= 0 {
		return errors.New("cache ttls must be positive")
	}
	return nil
}
