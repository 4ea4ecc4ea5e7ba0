package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App holds the kiosk runtime configuration.
type App struct {
	Env     string        `mapstructure:"env"`
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Kiosk   KioskConfig   `mapstructure:"kiosk"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitPerMin int           `mapstructure:"rate_limit_per_min"`
}

// APIConfig points the client at the remote attendance server.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// KioskConfig carries the behavioural constants of the badge terminal.
// These mirror the values the product shipped with; they are configuration,
// not derived policy, so changing one must not require a code change.
type KioskConfig struct {
	BadgeLength      int           `mapstructure:"badge_length"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	MinTaskLength    int           `mapstructure:"min_task_length"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	StandardDayHours float64       `mapstructure:"standard_day_hours"`
	MinDailyHours    float64       `mapstructure:"min_daily_hours"`
	AverageWindow    int           `mapstructure:"average_window"`
	StatusRefresh    time.Duration `mapstructure:"status_refresh"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads config.yaml (working dir or ./config) with env overrides.
func Load() (*App, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	viper.SetEnvPrefix("kiosk")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg App
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("env", "dev")

	viper.SetDefault("server.address", ":8090")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.rate_limit_per_min", 120)

	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("api.timeout", "15s")

	viper.SetDefault("kiosk.badge_length", 4)
	viper.SetDefault("kiosk.cooldown", "3s")
	viper.SetDefault("kiosk.min_task_length", 10)
	viper.SetDefault("kiosk.history_limit", 10)
	viper.SetDefault("kiosk.standard_day_hours", 8.0)
	viper.SetDefault("kiosk.min_daily_hours", 4.0)
	viper.SetDefault("kiosk.average_window", 7)
	viper.SetDefault("kiosk.status_refresh", "60s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", true)
}
