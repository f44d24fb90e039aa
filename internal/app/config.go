package app

import (
	"time"

	"github.com/seb7887/listkit/cfgmng"
)

const envPrefix = "LISTKIT"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	List     ListConfig     `mapstructure:"list"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Events   EventsConfig   `mapstructure:"events"`
	Retry    RetryConfig    `mapstructure:"retry"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

// DatabaseConfig selects the store. Driver is one of sqlite, cockroach or
// memory.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ListConfig struct {
	Table           string `mapstructure:"table"`
	IncrementPolicy string `mapstructure:"increment_policy"`
	// SerializerWorkers > 0 runs operations of one list on one worker.
	SerializerWorkers int `mapstructure:"serializer_workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig enables the redis row cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// EventsConfig publishes list changes to NATS when NatsURL is set.
type EventsConfig struct {
	NatsURL string `mapstructure:"nats_url"`
	Topic   string `mapstructure:"topic"`
}

// RetryConfig bounds retries of transactions aborted by serialization
// conflicts.
type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Initial  time.Duration `mapstructure:"initial"`
	Max      time.Duration `mapstructure:"max"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Defaults lists every key so each one can be set from the environment.
func Defaults() map[string]any {
	return map[string]any{
		"database.driver":         "sqlite",
		"database.dsn":            "file:listkit.db",
		"list.table":              "tasks",
		"list.increment_policy":   "always",
		"list.serializer_workers": 0,
		"log.level":               "info",
		"log.format":              "text",
		"cache.redis_addr":        "",
		"cache.ttl":               5 * time.Minute,
		"events.nats_url":         "",
		"events.topic":            "listkit.events",
		"retry.attempts":          5,
		"retry.initial":           20 * time.Millisecond,
		"retry.max":               time.Second,
		"http.addr":               ":8080",
	}
}

// LoadConfig reads <dir>/<name>.yaml if present, then LISTKIT_* variables.
func LoadConfig(dir, name string) (*Config, error) {
	return cfgmng.LoadConfig[Config](dir, name,
		cfgmng.WithEnvPrefix(envPrefix),
		cfgmng.WithDefaults(Defaults()),
		cfgmng.Optional(),
	)
}
