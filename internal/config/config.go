// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// ChartWidth and ChartHeight are the default container size of a chart.
	ChartWidth  int `koanf:"chart_width" validate:"min=200,max=2400"`
	ChartHeight int `koanf:"chart_height" validate:"min=150,max=2400"`

	// FetchTimeoutMS bounds a single sheet download.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms" validate:"min=100"`

	// CacheSize bounds the number of cached class sheets; 0 is unbounded.
	CacheSize int `koanf:"cache_size" validate:"min=0"`

	// CacheTTLSeconds is how long a cached sheet is served; 0 never expires.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds" validate:"min=0"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1,max=64"`

	// QueueSize bounds the refresh queue.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// RefreshIntervalSeconds schedules periodic reloads; 0 disables them.
	RefreshIntervalSeconds int `koanf:"refresh_interval_seconds" validate:"min=0"`

	// XLSXPath reads sheets from a local workbook instead of published URLs.
	XLSXPath string `koanf:"xlsx_path" validate:"omitempty,file"`

	// Classes maps class names to published sheet URLs.
	Classes map[string]string `koanf:"classes" validate:"dive,keys,required,endkeys,url"`
}

// New creates a Config with defaults. ctx is reserved for loaders that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		ChartWidth:             800,
		ChartHeight:            400,
		FetchTimeoutMS:         10_000,
		CacheSize:              64,
		CacheTTLSeconds:        300,
		WorkerCount:            2,
		QueueSize:              256,
		RefreshIntervalSeconds: 0,
		Classes:                map[string]string{},
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RefreshInterval returns RefreshIntervalSeconds as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}
