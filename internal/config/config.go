package config

import "time"

// TLS holds the optional certificate configuration for WSS serving.
type TLS struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	TLS               TLS           `mapstructure:"tls" yaml:"tls"`
	CORSOrigin        string        `mapstructure:"cors_origin" yaml:"cors_origin"`
	MaxConnections    int           `mapstructure:"max_connections" yaml:"max_connections"`
	MaxClassrooms     int           `mapstructure:"max_classrooms" yaml:"max_classrooms"`
	RateLimit         int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateWindow        time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	IdleTimeout       time.Duration `mapstructure:"classroom_idle_timeout" yaml:"classroom_idle_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration matching the reference deployment.
func Default() Config {
	return Config{
		Addr:              ":14711",
		CORSOrigin:        "*",
		MaxConnections:    200,
		MaxClassrooms:     100,
		RateLimit:         10,
		RateWindow:        time.Second,
		SweepInterval:     time.Minute,
		IdleTimeout:       30 * time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
	}
}
