package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// mnemo.yaml file in the working directory. Environment variables use the
// MNEMO_ prefix with underscores between levels (MNEMO_DATABASE_URL maps to
// database.url) and take precedence over file values. A .env file, when
// present, is loaded into the environment first.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()

	// Every key needs a default registered or AutomaticEnv will not see it
	// during Unmarshal.
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "mnemo.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("queue.session_size", 15)
	v.SetDefault("queue.max_new", 10)
	v.SetDefault("queue.max_due", 0)
	v.SetDefault("srs.min_ease", 1.3)
	v.SetDefault("srs.max_ease", 3.0)
	v.SetDefault("srs.max_interval_days", 365)
	v.SetDefault("reminder.enabled", false)
	v.SetDefault("reminder.check_interval", "1h")

	v.SetConfigName("mnemo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MNEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
