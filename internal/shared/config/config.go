package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the services need. Values come from config.yaml
// and/or environment variables (DATABASE_HOST, RABBITMQ_PORT, ...).
type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	RabbitMQ struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"rabbitmq"`

	Services struct {
		MenuURL  string `mapstructure:"menu_url"`
		OrderURL string `mapstructure:"order_url"`
	} `mapstructure:"services"`

	Auth struct {
		// Per-caller validation windows for table tokens. The order and
		// payment endpoints deliberately disagree; see DESIGN.md.
		OrderTokenTTL   time.Duration `mapstructure:"order_token_ttl"`
		PaymentTokenTTL time.Duration `mapstructure:"payment_token_ttl"`
		// How long the authority records a freshly issued token as live.
		IssueTTL time.Duration `mapstructure:"issue_ttl"`
	} `mapstructure:"auth"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from config.yaml in the given path (and the
// current directory), applies defaults, merges environment variables, and
// validates required fields.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no file is fine; env vars and defaults apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "restaurant")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")

	v.SetDefault("services.menu_url", "http://localhost:3001")
	v.SetDefault("services.order_url", "http://localhost:3000")

	v.SetDefault("auth.order_token_ttl", 24*time.Hour)
	v.SetDefault("auth.payment_token_ttl", time.Hour)
	v.SetDefault("auth.issue_ttl", time.Hour)

	v.SetDefault("log_level", "info")
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}

	if c.Auth.OrderTokenTTL <= 0 || c.Auth.PaymentTokenTTL <= 0 || c.Auth.IssueTTL <= 0 {
		problems = append(problems, "auth TTLs must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// AMQPURL renders the broker URL from the rabbitmq section.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
