package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // business timezone must resolve without system zoneinfo

	"github.com/flexprice/posbilling/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Database   DatabaseConfig   `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Sequence   SequenceConfig
	LedgerSync LedgerSyncConfig `mapstructure:"ledger_sync"`
	Cache      CacheConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
	// AllowedOrigins restricts CORS; empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type DatabaseConfig struct {
	Driver       types.DatabaseDriver `validate:"required,oneof=postgres sqlite3"`
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string // sqlite file path
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// BillingConfig holds the business settings of the point of sale
type BillingConfig struct {
	// Timezone the business operates in; fiscal years are derived from
	// calendar dates in this zone
	Timezone       string `validate:"required"`
	Currency       string `validate:"required"`
	DefaultTaxRate string `mapstructure:"default_tax_rate" validate:"required"`
}

type SequenceConfig struct {
	// RolloverEnabled schedules a Reset at the start of every fiscal year
	RolloverEnabled  bool   `mapstructure:"rollover_enabled"`
	RolloverSchedule string `mapstructure:"rollover_schedule"`
	// LedgerTimeout bounds a single reconciliation query against the ledger
	LedgerTimeout time.Duration `mapstructure:"ledger_timeout"`
}

type LedgerSyncConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
	// ReplayRate caps ledger appends per second during a replay; 0 is unlimited
	ReplayRate float64 `mapstructure:"replay_rate" validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional; values already in the environment win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/posbilling")

	v.SetEnvPrefix("POSBILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("database.driver", types.DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/posbilling.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("billing.timezone", "Asia/Kolkata")
	v.SetDefault("billing.currency", "INR")
	v.SetDefault("billing.default_tax_rate", "18")
	v.SetDefault("sequence.rollover_enabled", true)
	v.SetDefault("sequence.rollover_schedule", "0 0 1 4 *")
	v.SetDefault("sequence.ledger_timeout", 10*time.Second)
	v.SetDefault("ledger_sync.max_retries", 5)
	v.SetDefault("ledger_sync.initial_interval", 500*time.Millisecond)
	v.SetDefault("ledger_sync.max_interval", 10*time.Second)
	v.SetDefault("ledger_sync.multiplier", 2.0)
	v.SetDefault("ledger_sync.max_elapsed_time", time.Minute)
	v.SetDefault("ledger_sync.replay_rate", 20)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Billing.Location(); err != nil {
		return fmt.Errorf("invalid billing timezone %q: %w", c.Billing.Timezone, err)
	}
	if _, err := c.Billing.TaxRate(); err != nil {
		return fmt.Errorf("invalid default tax rate %q: %w", c.Billing.DefaultTaxRate, err)
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Database: DatabaseConfig{
			Driver:      types.DatabaseDriverSQLite,
			Path:        ":memory:",
			AutoMigrate: true,
		},
		Billing: BillingConfig{
			Timezone:       "Asia/Kolkata",
			Currency:       "INR",
			DefaultTaxRate: "18",
		},
		Sequence: SequenceConfig{
			RolloverSchedule: "0 0 1 4 *",
			LedgerTimeout:    10 * time.Second,
		},
		LedgerSync: LedgerSyncConfig{
			MaxRetries:      3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2,
			MaxElapsedTime:  time.Second,
		},
		Cache: CacheConfig{Enabled: true, TTL: time.Minute},
	}
}

// Location resolves the business timezone
func (c BillingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// TaxRate parses the default tax rate percentage
func (c BillingConfig) TaxRate() (decimal.Decimal, error) {
	return decimal.NewFromString(c.DefaultTaxRate)
}

// GetDSN returns the data source name for the configured driver
func (c DatabaseConfig) GetDSN() string {
	if c.Driver == types.DatabaseDriverSQLite {
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", c.Path)
	}
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
