package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"bithumb-backoffice/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ExchangeConfig covers exchange REST API access and signing credentials.
type ExchangeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SchedulerConfig governs periodic sync cadence.
type SchedulerConfig struct {
	SyncInterval       time.Duration `mapstructure:"sync_interval"`
	MarketSyncInterval time.Duration `mapstructure:"market_sync_interval"`
	AlignToInterval    bool          `mapstructure:"align_to_interval"`
	StartupDelay       time.Duration `mapstructure:"startup_delay"`
}

// SyncConfig sets transaction synchronisation defaults.
type SyncConfig struct {
	DefaultCurrency  string   `mapstructure:"default_currency"`
	DefaultCount     int      `mapstructure:"default_count"`
	RecentLimit      int      `mapstructure:"recent_limit"`
	TargetCurrencies []string `mapstructure:"target_currencies"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bithumb-backoffice")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("exchange.base_url", "https://api.bithumb.com")
	v.SetDefault("exchange.request_timeout", "10s")
	v.SetDefault("exchange.user_agent", "bithumb-backoffice/1.0")

	v.SetDefault("scheduler.sync_interval", "5m")
	v.SetDefault("scheduler.market_sync_interval", "30m")
	v.SetDefault("scheduler.align_to_interval", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("sync.default_currency", "ALL")
	v.SetDefault("sync.default_count", 20)
	v.SetDefault("sync.recent_limit", 20)
	v.SetDefault("sync.target_currencies", []string{"BTC", "ETH", "USDT", "USDC"})

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Scheduler.SyncInterval <= 0 {
		return fmt.Errorf("scheduler.sync_interval must be greater than zero")
	}
	if c.Scheduler.MarketSyncInterval < 0 {
		return fmt.Errorf("scheduler.market_sync_interval cannot be negative")
	}
	if c.Sync.DefaultCount <= 0 {
		return fmt.Errorf("sync.default_count must be greater than zero")
	}
	if c.Sync.RecentLimit <= 0 {
		return fmt.Errorf("sync.recent_limit must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
