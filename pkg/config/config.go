package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SODIUM_API_SESSION_SECRET.
const EnvPrefix = "SODIUM"

// Config is the service configuration, read from YAML and overridden from the
// environment.
type Config struct {
	App struct {
		Name string `yaml:"name" envconfig:"APP_NAME"`
		Env  string `yaml:"env" envconfig:"APP_ENV"`
	} `yaml:"app"`

	Database struct {
		Driver       string        `yaml:"driver" validate:"oneof=postgres sqlite"`
		Host         string        `yaml:"host" envconfig:"DB_HOST"`
		Port         int           `yaml:"port" envconfig:"DB_PORT"`
		User         string        `yaml:"user" envconfig:"DB_USER"`
		Password     string        `yaml:"password" envconfig:"DB_PASSWORD"`
		DBName       string        `yaml:"dbname" envconfig:"DB_NAME"`
		SSLMode      string        `yaml:"sslmode"`
		SQLitePath   string        `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
		MaxOpenConns int           `yaml:"max_open_conns" split_words:"true" validate:"gte=0"`
		MaxIdleConns int           `yaml:"max_idle_conns" split_words:"true" validate:"gte=0"`
		ConnLifetime time.Duration `yaml:"conn_lifetime" split_words:"true"`
	} `yaml:"database"`

	NATS struct {
		URL    string `yaml:"url" envconfig:"NATS_URL"`
		Stream string `yaml:"stream"`
		Name   string `yaml:"name"`
	} `yaml:"nats"`

	API struct {
		Port          int           `yaml:"port" envconfig:"API_PORT" validate:"min=1,max=65535"`
		ReadTimeout   time.Duration `yaml:"read_timeout" split_words:"true"`
		WriteTimeout  time.Duration `yaml:"write_timeout" split_words:"true"`
		SessionName   string        `yaml:"session_name" split_words:"true"`
		SessionSecret string        `yaml:"session_secret" split_words:"true"`
	} `yaml:"api"`

	Sodium struct {
		DailyLimitMG      int64  `yaml:"daily_limit_mg" split_words:"true" validate:"gt=0"`
		TimeZone          string `yaml:"time_zone" split_words:"true" validate:"timezone"`
		AlertHistoryLimit int    `yaml:"alert_history_limit" split_words:"true" validate:"gt=0"`
	} `yaml:"sodium"`

	Scheduler struct {
		HealthCheckSpec string `yaml:"health_check_spec" split_words:"true"`
	} `yaml:"scheduler"`

	Log struct {
		Level string `yaml:"level" envconfig:"LOG_LEVEL"`
	} `yaml:"log"`
}

// Default returns the configuration used when a key is absent from both the
// file and the environment.
func Default() *Config {
	var c Config
	c.App.Name = "sodiumwatch"
	c.App.Env = "dev"
	c.Database.Driver = "sqlite"
	c.Database.Host = "localhost"
	c.Database.Port = 5432
	c.Database.SSLMode = "disable"
	c.Database.SQLitePath = "sodiumwatch.db"
	c.Database.MaxOpenConns = 25
	c.Database.MaxIdleConns = 5
	c.Database.ConnLifetime = 5 * time.Minute
	c.NATS.Stream = "SODIUM_EVENTS"
	c.NATS.Name = "sodiumwatch"
	c.API.Port = 8080
	c.API.ReadTimeout = 10 * time.Second
	c.API.WriteTimeout = 10 * time.Second
	c.API.SessionName = "sodium_session"
	c.API.SessionSecret = "dev-only-session-secret-change-me!!"
	c.Sodium.DailyLimitMG = 2000
	c.Sodium.TimeZone = "UTC"
	c.Sodium.AlertHistoryLimit = 50
	c.Scheduler.HealthCheckSpec = "@every 30s"
	c.Log.Level = "info"
	return &c
}

// LoadConfig reads path, applies environment overrides and validates. A
// missing file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.App.Env != "dev" && c.App.Env != "test" && len(c.API.SessionSecret) < 32 {
		return fmt.Errorf("invalid config: api.session_secret must be at least 32 bytes in %s", c.App.Env)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves the default time zone for users without one.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Sodium.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", c.Sodium.TimeZone, err)
	}
	return loc, nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	db := c.Database
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode,
	)
}

// GetDefaultConfigPath returns CONFIG_PATH, or configs/<APP_ENV>/app.yaml.
func GetDefaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("configs/%s/app.yaml", env)
}
