// Package types provides configuration types for the trade statistics backend.
package types

import "time"

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Journal   JournalConfig   `mapstructure:"journal" json:"journal" yaml:"journal"`
	Analytics AnalyticsConfig `mapstructure:"analytics" json:"analytics" yaml:"analytics"`
	Workers   WorkersConfig   `mapstructure:"workers" json:"workers" yaml:"workers"`
	Schedule  ScheduleConfig  `mapstructure:"schedule" json:"schedule" yaml:"schedule"`
	Tracing   TracingConfig   `mapstructure:"tracing" json:"tracing" yaml:"tracing"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`
	WebSocketPath  string        `mapstructure:"websocketPath" json:"websocketPath" yaml:"websocketPath"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout" json:"writeTimeout" yaml:"writeTimeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins" json:"allowedOrigins" yaml:"allowedOrigins"`
	RateLimit      float64       `mapstructure:"rateLimit" json:"rateLimit" yaml:"rateLimit"` // requests per second, 0 disables
	RateBurst      int           `mapstructure:"rateBurst" json:"rateBurst" yaml:"rateBurst"`
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes" json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level    string `mapstructure:"level" json:"level" yaml:"level"`          // debug, info, warn, error
	Encoding string `mapstructure:"encoding" json:"encoding" yaml:"encoding"` // console, json
}

// JournalConfig represents trade journal storage configuration
type JournalConfig struct {
	DataDir    string `mapstructure:"dataDir" json:"dataDir" yaml:"dataDir"`
	SQLitePath string `mapstructure:"sqlitePath" json:"sqlitePath" yaml:"sqlitePath"` // empty uses the file store
}

// AnalyticsConfig holds the policy knobs of the metrics engine
type AnalyticsConfig struct {
	StreakOrder        string  `mapstructure:"streakOrder" json:"streakOrder" yaml:"streakOrder"` // newest, oldest
	TradingDaysPerYear float64 `mapstructure:"tradingDaysPerYear" json:"tradingDaysPerYear" yaml:"tradingDaysPerYear"`
	StartingCapital    float64 `mapstructure:"startingCapital" json:"startingCapital" yaml:"startingCapital"`
}

// WorkersConfig sizes the batch computation pool
type WorkersConfig struct {
	NumWorkers  int           `mapstructure:"numWorkers" json:"numWorkers" yaml:"numWorkers"`
	QueueSize   int           `mapstructure:"queueSize" json:"queueSize" yaml:"queueSize"`
	TaskTimeout time.Duration `mapstructure:"taskTimeout" json:"taskTimeout" yaml:"taskTimeout"`
}

// ScheduleConfig configures periodic journal snapshots
type ScheduleConfig struct {
	SnapshotCron string   `mapstructure:"snapshotCron" json:"snapshotCron" yaml:"snapshotCron"` // empty disables
	Journals     []string `mapstructure:"journals" json:"journals" yaml:"journals"`
}

// TracingConfig toggles OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"serviceName" json:"serviceName" yaml:"serviceName"`
}
