package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "config/local.yaml"

type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER"`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// Storage selects the durable store driver: "postgres" or "memory".
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type CacheConfig struct {
	// Entries older than Expiration are treated as absent by every tier.
	Expiration    time.Duration `yaml:"expiration" env:"CACHE_EXPIRATION" env-default:"24h"`
	DefaultTTL    time.Duration `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL" env-default:"24h"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"CACHE_SESSION_TTL" env-default:"30m"`
	SessionSize   int           `yaml:"session_size" env:"CACHE_SESSION_SIZE" env-default:"10000"`
	// Zero disables the background sweep of expired durable entries.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"CACHE_SWEEP_INTERVAL" env-default:"1h"`
}

type Catalog struct {
	BaseURL          string        `yaml:"base_url" env:"CATALOG_BASE_URL" env-required:"true"`
	ConsumerKey      string        `yaml:"consumer_key" env:"CATALOG_CONSUMER_KEY" env-required:"true"`
	ConsumerSecret   string        `yaml:"consumer_secret" env:"CATALOG_CONSUMER_SECRET" env-required:"true"`
	Timeout          time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"5s"`
	SearchTimeout    time.Duration `yaml:"search_timeout" env:"CATALOG_SEARCH_TIMEOUT" env-default:"3s"`
	PerPage          int           `yaml:"per_page" env:"CATALOG_PER_PAGE" env-default:"20"`
	PlaceholderImage string        `yaml:"placeholder_image" env:"CATALOG_PLACEHOLDER_IMAGE" env-default:"/placeholder.jpg"`
}

type Search struct {
	SpecificThreshold int `yaml:"specific_threshold" env:"SEARCH_SPECIFIC_THRESHOLD" env-default:"80"`
	MinLocalResults   int `yaml:"min_local_results" env:"SEARCH_MIN_LOCAL_RESULTS" env-default:"5"`
	LocalLimit        int `yaml:"local_limit" env:"SEARCH_LOCAL_LIMIT" env-default:"5"`
	ShortQueryLength  int `yaml:"short_query_length" env:"SEARCH_SHORT_QUERY_LENGTH" env-default:"3"`
	RemoteLimit       int `yaml:"remote_limit" env:"SEARCH_REMOTE_LIMIT" env-default:"10"`
}

// RateConfig bounds forced refreshes per session over a sliding window.
type RateConfig struct {
	MaxRefreshes int64         `yaml:"max_refreshes" env:"RATE_MAX_REFRESHES" env-default:"10"`
	WindowSize   time.Duration `yaml:"window_size" env:"RATE_WINDOW_SIZE" env-default:"1m"`
}

type Otel struct {
	Enabled          bool    `yaml:"ENABLED" env:"OTEL_ENABLED" env-default:"false"`
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"storefront-cache"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:"http://localhost:4318/v1/traces"`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Storage      Storage      `yaml:"storage"`
	Cache        CacheConfig  `yaml:"cache"`
	Catalog      Catalog      `yaml:"catalog"`
	Search       Search       `yaml:"search"`
	RateConfig   RateConfig   `yaml:"rate_limit"`
	Otel         Otel         `yaml:"otel"`
}

func MustLoad() *Config {

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = defaultConfigPath
		}

	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg

}

func LoadConfigFromPath(configPath string) (*Config, error) {

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return &cfg, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s", r.Username, r.Password, r.Host, r.Port)
}
