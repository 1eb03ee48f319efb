package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EngineConfig holds everything cmd/legion needs to open a store and run
// turn resolution. It is the only configuration this package defines, and
// the layer the legion CLI reads.
type EngineConfig struct {
	// StorePath is the embedded Dolt database directory (sqlstore.Config.Path).
	StorePath string `mapstructure:"store_path"`
	// StoreDatabase is the Dolt database name (sqlstore.Config.Database).
	StoreDatabase string `mapstructure:"store_database"`

	// GuildIDs are the internal Guild.ID values serve polls every PollInterval.
	GuildIDs []int `mapstructure:"guild_ids"`
	// PollIntervalSeconds is how often serve attempts to resolve a turn for
	// each configured guild.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// TracingEnabled and MetricsEnabled gate observability.Init; both read
	// from the same OTel stdout exporters, so they are one flag in practice,
	// but kept separate so a future non-stdout exporter can split them.
	TracingEnabled bool `mapstructure:"tracing_enabled"`
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

func engineDefaults() EngineConfig {
	return EngineConfig{
		StorePath:           "./legion-data",
		StoreDatabase:       "legion",
		PollIntervalSeconds: 30,
		LogLevel:            "info",
		TracingEnabled:      true,
		MetricsEnabled:      true,
	}
}

// LoadEngineConfig reads the YAML file at configPath (a file path, not a
// directory) or, when configPath is empty, a file named legion found in
// the current directory, layered over engineDefaults, with LEGION_-prefixed
// environment variables taking precedence. Only viper's
// ConfigFileNotFoundError is tolerated as "no file"; any other read error
// is returned.
func LoadEngineConfig(configPath string) (*EngineConfig, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("legion")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LEGION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := engineDefaults()
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("store_database", defaults.StoreDatabase)
	v.SetDefault("poll_interval_seconds", defaults.PollIntervalSeconds)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("tracing_enabled", defaults.TracingEnabled)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("read legion config: %w", err)
		}
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode legion config: %w", err)
	}
	return &cfg, v, nil
}

// WatchEngineConfig installs viper's fsnotify-backed watcher and calls
// onChange with the re-decoded config every time the underlying file
// changes. This is operational convenience for serve: a reload changes the
// guild_ids serve resolves on its next tick, while the poll interval and
// log level keep the values serve started with. A turn already in
// ResolveTurn never consults it, since engine.ResolveTurn takes no config
// argument at all.
func WatchEngineConfig(v *viper.Viper, onChange func(EngineConfig)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg EngineConfig
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
