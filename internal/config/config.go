package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTP    HTTPConfig
	DB      DBConfig
	JWT     JWTConfig
	Queue   QueueConfig
	Storage StorageConfig
	Log     LogConfig
}

type HTTPConfig struct {
	Port           string        `env:"PORT" env-default:"8080"`
	GinMode        string        `env:"GIN_MODE" env-default:"debug"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"10s"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"postgres"`
	DSN      string `env:"DB_DSN"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"storyuser"`
	Password string `env:"DB_PASSWORD" env-default:"storypassword"`
	Name     string `env:"DB_NAME" env-default:"story_relay"`
}

type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET" env-default:"default-secret-key-change-me"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"5m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"24h"`
}

type QueueConfig struct {
	Backend       string        `env:"QUEUE_BACKEND" env-default:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisKey      string        `env:"REDIS_QUEUE_KEY" env-default:"story_relay:exports"`
	Workers       int           `env:"EXPORT_WORKERS" env-default:"2"`
	BufferSize    int           `env:"EXPORT_QUEUE_SIZE" env-default:"64"`
	JobTimeout    time.Duration `env:"EXPORT_JOB_TIMEOUT" env-default:"2m"`
}

type StorageConfig struct {
	Backend   string `env:"STORAGE_BACKEND" env-default:"fs"`
	MediaRoot string `env:"MEDIA_ROOT" env-default:"./media"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET" env-default:"story-exports"`
	Region    string `env:"S3_REGION" env-default:"us-east-1"`
	UseSSL    bool   `env:"S3_USE_SSL" env-default:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would only fail later at connect time.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Queue.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported QUEUE_BACKEND %q", c.Queue.Backend)
	}
	switch c.Storage.Backend {
	case "fs", "s3", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Queue.Workers < 1 {
		return errors.New("EXPORT_WORKERS must be at least 1")
	}
	if c.HTTP.GinMode == "release" && (c.JWT.Secret == "" || c.JWT.Secret == "default-secret-key-change-me") {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	return nil
}

// DatabaseDSN builds the driver-specific DSN unless DB_DSN overrides it.
func (c DBConfig) DatabaseDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case "sqlite":
		return c.Name + ".db"
	default:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	}
}
