// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like ASSISTANT_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored if not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values with the
// corresponding environment variable.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") {
				expanded := os.Expand(strVal, func(name string) string {
					return os.Getenv(name)
				})
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "henry-gateway"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Assistant.ChatPath == "" {
		cfg.Assistant.ChatPath = "/api/hey-henry"
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = 30000
	}
	if cfg.Assistant.MaxRetries == 0 {
		cfg.Assistant.MaxRetries = 2
	}

	if cfg.Admin.Timeout == 0 {
		cfg.Admin.Timeout = 10000
	}

	// Shipped widget behavior. Values are fixed product constants, surfaced
	// here only so they live in one place.
	if cfg.Engagement.HistoryCap == 0 {
		cfg.Engagement.HistoryCap = 20
	}
	if cfg.Engagement.GhostedAfterDays == 0 {
		cfg.Engagement.GhostedAfterDays = 14
	}
	if cfg.Engagement.StalledAfterDays == 0 {
		cfg.Engagement.StalledAfterDays = 3
	}
	if cfg.Engagement.WelcomeBackMinMinutes == 0 {
		cfg.Engagement.WelcomeBackMinMinutes = 60
	}
	if cfg.Engagement.SessionTTLMinutes == 0 {
		cfg.Engagement.SessionTTLMinutes = 120
	}

	if cfg.Engagement.Tooltip.InitialDelayMin == 0 {
		cfg.Engagement.Tooltip.InitialDelayMin = 5
	}
	if cfg.Engagement.Tooltip.InitialDelayMax == 0 {
		cfg.Engagement.Tooltip.InitialDelayMax = 10
	}
	if cfg.Engagement.Tooltip.DisplaySeconds == 0 {
		cfg.Engagement.Tooltip.DisplaySeconds = 3
	}
	if cfg.Engagement.Tooltip.IntervalMin == 0 {
		cfg.Engagement.Tooltip.IntervalMin = 20
	}
	if cfg.Engagement.Tooltip.IntervalMax == 0 {
		cfg.Engagement.Tooltip.IntervalMax = 40
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Assistant.BaseURL == "" {
		return fmt.Errorf("assistant.base_url is required")
	}
	if cfg.Engagement.Tooltip.IntervalMin > cfg.Engagement.Tooltip.IntervalMax {
		return fmt.Errorf("engagement.tooltip: interval_min exceeds interval_max")
	}
	if cfg.Engagement.Tooltip.InitialDelayMin > cfg.Engagement.Tooltip.InitialDelayMax {
		return fmt.Errorf("engagement.tooltip: initial_delay_min exceeds initial_delay_max")
	}
	return nil
}
