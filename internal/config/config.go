package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Amadeus     AmadeusConfig   `mapstructure:"amadeus"`
	Forecast    ForecastConfig  `mapstructure:"forecast"`
	Alerts      AlertsConfig    `mapstructure:"alerts"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AmadeusConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Timeout   int    `mapstructure:"timeout"`
}

// ForecastConfig tunes the divide-and-conquer engine. Every knob the engine
// consumes is injectable from here rather than hard-coded.
type ForecastConfig struct {
	MinSegmentSize       int     `mapstructure:"min_segment_size"`
	ClusterCap           int     `mapstructure:"cluster_cap"`
	ClusterSeed          int64   `mapstructure:"cluster_seed"`
	MovingAverageWindow  int     `mapstructure:"moving_average_window"`
	SeasonalPeriod       int     `mapstructure:"seasonal_period"`
	WeightAutoregressive float64 `mapstructure:"weight_autoregressive"`
	WeightSmoothing      float64 `mapstructure:"weight_smoothing"`
	WeightMovingAverage  float64 `mapstructure:"weight_moving_average"`
	MergeStrategy        string  `mapstructure:"merge_strategy"`
	AncestryDepth        int     `mapstructure:"ancestry_depth"`
	Workers              int     `mapstructure:"workers"`
	HistoryDays          int     `mapstructure:"history_days"`
	CacheTTLMinutes      int     `mapstructure:"cache_ttl_minutes"`
}

type AlertsConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	CheckIntervalMinutes int  `mapstructure:"check_interval_minutes"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("amadeus.api_key", "AMADEUS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind AMADEUS_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("amadeus.api_secret", "AMADEUS_API_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind AMADEUS_API_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Forecast.MinSegmentSize < 1 {
		return fmt.Errorf("invalid min_segment_size: %d", c.Forecast.MinSegmentSize)
	}
	weightSum := c.Forecast.WeightAutoregressive + c.Forecast.WeightSmoothing + c.Forecast.WeightMovingAverage
	if weightSum <= 0 {
		return fmt.Errorf("ensemble weights must sum to a positive value, got %f", weightSum)
	}
	if c.Forecast.HistoryDays < 1 {
		return fmt.Errorf("invalid history_days: %d", c.Forecast.HistoryDays)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "farecast")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "farecast")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("amadeus.base_url", "https://test.api.amadeus.com")
	viper.SetDefault("amadeus.timeout", 30)

	viper.SetDefault("forecast.min_segment_size", 10)
	viper.SetDefault("forecast.cluster_cap", 5)
	viper.SetDefault("forecast.cluster_seed", 42)
	viper.SetDefault("forecast.moving_average_window", 7)
	viper.SetDefault("forecast.seasonal_period", 7)
	viper.SetDefault("forecast.weight_autoregressive", 0.4)
	viper.SetDefault("forecast.weight_smoothing", 0.3)
	viper.SetDefault("forecast.weight_moving_average", 0.3)
	viper.SetDefault("forecast.merge_strategy", "confidence_based")
	viper.SetDefault("forecast.ancestry_depth", 2)
	viper.SetDefault("forecast.workers", 0)
	viper.SetDefault("forecast.history_days", 90)
	viper.SetDefault("forecast.cache_ttl_minutes", 30)

	viper.SetDefault("alerts.enabled", true)
	viper.SetDefault("alerts.check_interval_minutes", 15)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.endpoint", "localhost:4318")
}
