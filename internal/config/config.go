// Package config loads tradestats configuration from defaults, a YAML file,
// the environment and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRADESTATS_SERVER_PORT.
const EnvPrefix = "TRADESTATS"

// Options control where configuration is read from
type Options struct {
	// File is an optional YAML config file.
	File string
	// EnvFile is loaded into the process environment when present.
	EnvFile string
	// Flags are bound by their config key name, e.g. "server.port".
	Flags *pflag.FlagSet
}

// Default returns the built-in configuration
func Default() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:           "localhost",
			Port:           8080,
			WebSocketPath:  "/ws",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
			RateLimit:      50,
			RateBurst:      100,
			MaxBodyBytes:   10 << 20,
		},
		Log: types.LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Journal: types.JournalConfig{
			DataDir: "./data/journals",
		},
		Analytics: types.AnalyticsConfig{
			StreakOrder:        analytics.NewestFirst.String(),
			TradingDaysPerYear: analytics.DefaultTradingDaysPerYear,
		},
		Workers: types.WorkersConfig{
			NumWorkers:  4,
			QueueSize:   256,
			TaskTimeout: 30 * time.Second,
		},
		Schedule: types.ScheduleConfig{
			Journals: []string{},
		},
		Tracing: types.TracingConfig{
			ServiceName: "tradestats",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.websocketPath", d.Server.WebSocketPath)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.allowedOrigins", d.Server.AllowedOrigins)
	v.SetDefault("server.rateLimit", d.Server.RateLimit)
	v.SetDefault("server.rateBurst", d.Server.RateBurst)
	v.SetDefault("server.maxBodyBytes", d.Server.MaxBodyBytes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)

	v.SetDefault("journal.dataDir", d.Journal.DataDir)
	v.SetDefault("journal.sqlitePath", d.Journal.SQLitePath)

	v.SetDefault("analytics.streakOrder", d.Analytics.StreakOrder)
	v.SetDefault("analytics.tradingDaysPerYear", d.Analytics.TradingDaysPerYear)
	v.SetDefault("analytics.startingCapital", d.Analytics.StartingCapital)

	v.SetDefault("workers.numWorkers", d.Workers.NumWorkers)
	v.SetDefault("workers.queueSize", d.Workers.QueueSize)
	v.SetDefault("workers.taskTimeout", d.Workers.TaskTimeout)

	v.SetDefault("schedule.snapshotCron", d.Schedule.SnapshotCron)
	v.SetDefault("schedule.journals", []string{})

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.serviceName", d.Tracing.ServiceName)
}

// Load resolves the configuration and validates it.
func Load(opts Options) (*types.Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %q: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", opts.File, err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &types.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func Validate(cfg *types.Config) error {
	var errs []error

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rateLimit must not be negative"))
	}
	if _, err := analytics.ParseOrder(cfg.Analytics.StreakOrder); err != nil {
		errs = append(errs, fmt.Errorf("analytics.streakOrder: %w", err))
	}
	if cfg.Analytics.TradingDaysPerYear <= 0 {
		errs = append(errs, fmt.Errorf("analytics.tradingDaysPerYear must be positive"))
	}
	if cfg.Workers.NumWorkers <= 0 {
		errs = append(errs, fmt.Errorf("workers.numWorkers must be positive"))
	}
	if cfg.Schedule.SnapshotCron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.SnapshotCron); err != nil {
			errs = append(errs, fmt.Errorf("schedule.snapshotCron: %w", err))
		}
	}

	return errors.Join(errs...)
}

// AnalyticsOptions converts the analytics section into calculator options.
func AnalyticsOptions(cfg types.AnalyticsConfig) (analytics.Options, error) {
	order, err := analytics.ParseOrder(cfg.StreakOrder)
	if err != nil {
		return analytics.Options{}, err
	}
	return analytics.Options{
		Order:              order,
		TradingDaysPerYear: cfg.TradingDaysPerYear,
	}, nil
}
