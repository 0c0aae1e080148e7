// internal/assistant/config.go
package assistant

import "time"

type Config struct {
	BaseURL    string
	ChatPath   string // /api/hey-henry or /api/ask-henry per widget instance
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		ChatPath:   "/api/hey-henry",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}
