package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// WaitingTTL is how long a user may wait for a partner before being
	// purged at the next match attempt.
	WaitingTTL time.Duration `mapstructure:"waiting_ttl" yaml:"waiting_ttl"`
	// EventRateLimit caps inbound events per connection per minute.
	// Zero disables the cap.
	EventRateLimit int `mapstructure:"event_rate_limit" yaml:"event_rate_limit"`
	// StaticDir, when set, is served as the chat page (index.html plus
	// a static/ subdirectory).
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		WaitingTTL:        300 * time.Second,
		EventRateLimit:    120,
		StaticDir:         "",
	}
}
