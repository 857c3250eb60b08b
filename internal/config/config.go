package config

import "time"

// Config holds all engine configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log      LogConfig      `mapstructure:"log" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// Driver selects the backend: "sqlite" uses Path, "postgres" uses URL.
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	URL         string `mapstructure:"url" validate:"required_if=Driver postgres,omitempty,url"`
	Path        string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// QueueConfig contains session queue sizing settings. MaxDue of zero means
// due cards are limited only by the session size.
type QueueConfig struct {
	SessionSize int `mapstructure:"session_size" validate:"required,gt=0"`
	MaxNew      int `mapstructure:"max_new" validate:"gte=0"`
	MaxDue      int `mapstructure:"max_due" validate:"gte=0"`
}

// SRSConfig contains scheduling parameter overrides.
type SRSConfig struct {
	MinEase         float64 `mapstructure:"min_ease" validate:"required,gt=0"`
	MaxEase         float64 `mapstructure:"max_ease" validate:"required,gtefield=MinEase"`
	MaxIntervalDays int     `mapstructure:"max_interval_days" validate:"required,gt=0"`
}

// ReminderConfig contains due-card reminder sweep settings.
type ReminderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"gt=0"`
}
