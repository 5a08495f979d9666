// Package config loads service settings from the environment and an optional
// YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string `mapstructure:"http_port" yaml:"http_port"`
	GRPCPort string `mapstructure:"grpc_port" yaml:"grpc_port"`

	DBDriver       string `mapstructure:"db_driver" yaml:"db_driver"`
	DBHost         string `mapstructure:"db_host" yaml:"db_host"`
	DBPort         int    `mapstructure:"db_port" yaml:"db_port"`
	DBUser         string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword     string `mapstructure:"db_password" yaml:"-"`
	DBName         string `mapstructure:"db_name" yaml:"db_name"`
	SQLitePath     string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MigrationsPath string `mapstructure:"migrations_path" yaml:"migrations_path"`

	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
	KafkaBrokers  string `mapstructure:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic    string `mapstructure:"kafka_topic" yaml:"kafka_topic"`

	PaymentGateway      string `mapstructure:"payment_gateway" yaml:"payment_gateway"`
	StripeSecretKey     string `mapstructure:"stripe_secret_key" yaml:"-"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret" yaml:"-"`
	FakeWebhookSecret   string `mapstructure:"fake_webhook_secret" yaml:"-"`
	Currency            string `mapstructure:"currency" yaml:"currency"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	AdminToken     string        `mapstructure:"admin_token" yaml:"-"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"http_port":             "8080",
	"grpc_port":             "50060",
	"db_driver":             repository.DriverPostgres,
	"db_host":               "localhost",
	"db_port":               5432,
	"db_user":               "postgres",
	"db_password":           "postgres",
	"db_name":               "storefront",
	"sqlite_path":           "storefront.db",
	"migrations_path":       "",
	"redis_addr":            "",
	"mongo_uri":             "",
	"mongo_database":        "storefront",
	"kafka_brokers":         "",
	"kafka_topic":           "storefront-outbox",
	"payment_gateway":       payment.ProviderFake,
	"stripe_secret_key":     "",
	"stripe_webhook_secret": "",
	"fake_webhook_secret":   "",
	"currency":              "usd",
	"request_timeout":       5 * time.Second,
	"admin_token":           "",
	"log_level":             "info",
}

// Load reads defaults, then the YAML file at path when path is not empty, then
// environment variables named after the upper-cased keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case repository.DriverPostgres, repository.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	switch c.PaymentGateway {
	case payment.ProviderFake:
	case payment.ProviderStripe:
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			errs = append(errs, errors.New("PAYMENT_GATEWAY=stripe requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.PaymentGateway))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY must be a three letter ISO code, got %q", c.Currency))
	}
	return errors.Join(errs...)
}

// Brokers splits KAFKA_BROKERS. An empty result means no broker is configured.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) Credentials() *repository.Credentials {
	return &repository.Credentials{
		Driver:            c.DBDriver,
		Host:              c.DBHost,
		Port:              c.DBPort,
		User:              c.DBUser,
		Password:          c.DBPassword,
		DBName:            c.DBName,
		SQLitePath:        c.SQLitePath,
		MigrationsDirPath: c.MigrationsPath,
	}
}

func (c *Config) Payment() payment.Config {
	return payment.Config{
		Provider:            c.PaymentGateway,
		StripeSecretKey:     c.StripeSecretKey,
		StripeWebhookSecret: c.StripeWebhookSecret,
		FakeWebhookSecret:   c.FakeWebhookSecret,
	}
}
