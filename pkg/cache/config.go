package cache

import "time"

// RedisConfig is the YAML shape of the Redis connection used for
// invalidation pub/sub.
type RedisConfig struct {
	Addr         string        `yaml:"addr" default:"localhost:6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size" default:"10" validate:"gte=1"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	PingTimeout  time.Duration `yaml:"ping_timeout" default:"5s"`
	Prefix       string        `yaml:"prefix" default:"symdir"`
}

// Options converts the config into client options.
func (c RedisConfig) Options() []RedisOption {
	return []RedisOption{
		WithRedisAddr(c.Addr),
		WithRedisPassword(c.Password),
		WithRedisDB(c.DB),
		WithRedisPool(c.PoolSize, c.MinIdleConns, c.PoolTimeout),
		WithRedisPingTimeout(c.PingTimeout),
		WithRedisPrefix(c.Prefix),
	}
}

// RedisOption configures the Redis client.
type RedisOption func(*RedisConfig)

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		if addr != "" {
			c.Addr = addr
		}
	}
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPool sets pool sizing; non-positive values keep the defaults.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
		if minIdleConns >= 0 {
			c.MinIdleConns = minIdleConns
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

// WithRedisPingTimeout bounds the connectivity check done by NewRedisClient.
func WithRedisPingTimeout(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if d > 0 {
			c.PingTimeout = d
		}
	}
}

// WithRedisPrefix namespaces pub/sub channels.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}
