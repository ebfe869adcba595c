package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AnalyticsConfig tunes the reporting endpoints.
type AnalyticsConfig struct {
	DefaultWindowDays int    `mapstructure:"defaultWindowDays"`
	Timezone          string `mapstructure:"timezone"`
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		DefaultWindowDays: 7,
		Timezone:          "UTC",
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	return loc
}

type AnalyticsConfigHolder struct {
	current atomic.Value // holds AnalyticsConfig
}

// NewStaticAnalyticsConfigHolder returns a holder that never reloads.
func NewStaticAnalyticsConfigHolder(cfg AnalyticsConfig) *AnalyticsConfigHolder {
	holder := &AnalyticsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAnalyticsConfigHolder() (*AnalyticsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analytics")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/taskflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAnalyticsConfig()
	v.SetDefault("analytics.defaultWindowDays", defaults.DefaultWindowDays)
	v.SetDefault("analytics.timezone", defaults.Timezone)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg AnalyticsConfig
	if err := v.UnmarshalKey("analytics", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalyticsConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticAnalyticsConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnalyticsConfig
		if err := v.UnmarshalKey("analytics", &updated); err != nil {
			zap.L().Warn("analytics config reload failed", zap.Error(err))
			return
		}
		if err := validateAnalyticsConfig(updated); err != nil {
			zap.L().Warn("invalid analytics config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("analytics config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *AnalyticsConfigHolder) Get() AnalyticsConfig {
	if h == nil {
		return DefaultAnalyticsConfig()
	}
	cfg, ok := h.current.Load().(AnalyticsConfig)
	if !ok {
		return DefaultAnalyticsConfig()
	}
	return cfg
}

func validateAnalyticsConfig(cfg AnalyticsConfig) error {
	if cfg.DefaultWindowDays < 0 {
		return errors.New("analytics.defaultWindowDays cannot be negative")
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return errors.New("analytics.timezone is not a valid IANA zone")
		}
	}
	return nil
}
