// internal/common/config/config.go
package config

import "fmt"

// Config is the main gateway configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AssistantConfig holds settings for the remote coaching backend.
type AssistantConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ChatPath   string `mapstructure:"chat_path"` // /api/hey-henry or /api/ask-henry per instance
	Timeout    int    `mapstructure:"timeout"`   // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// AdminConfig holds settings for the admin notifications backend.
type AdminConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// EngagementConfig holds the fixed behavioral thresholds of the widget.
// These values mirror the product's shipped behavior and must not be tuned
// without a coordinated product change.
type EngagementConfig struct {
	HistoryCap            int `mapstructure:"history_cap"`              // persisted conversation messages
	GhostedAfterDays      int `mapstructure:"ghosted_after_days"`       // Applied with no response
	StalledAfterDays      int `mapstructure:"stalled_after_days"`       // no pipeline activity
	WelcomeBackMinMinutes int `mapstructure:"welcome_back_min_minutes"` // minimum age since signup
	SessionTTLMinutes     int `mapstructure:"session_ttl_minutes"`      // idle gateway session eviction

	Tooltip TooltipConfig `mapstructure:"tooltip"`
}

// TooltipConfig holds the tooltip scheduler timing windows, in seconds.
type TooltipConfig struct {
	InitialDelayMin int `mapstructure:"initial_delay_min"`
	InitialDelayMax int `mapstructure:"initial_delay_max"`
	DisplaySeconds  int `mapstructure:"display_seconds"`
	IntervalMin     int `mapstructure:"interval_min"`
	IntervalMax     int `mapstructure:"interval_max"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
