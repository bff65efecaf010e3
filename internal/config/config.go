// Package config loads bonetider settings from defaults, an optional YAML file,
// BONETIDER_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/prayer"
)

const (
	EnvPrefix      = "BONETIDER"
	ConfigName     = ".bonetider"
	DefaultDataDir = "~/.local/share/bonetider"
)

// Config is the full application configuration
type Config struct {
	Timezone string         `mapstructure:"timezone" validate:"required,timezone"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

// UpstreamConfig describes the timetable widget endpoint
type UpstreamConfig struct {
	URL        string        `mapstructure:"url" validate:"required,url"`
	City       string        `mapstructure:"city" validate:"required"`
	Origin     string        `mapstructure:"origin" validate:"omitempty,url"`
	Referer    string        `mapstructure:"referer" validate:"omitempty,url"`
	UserAgent  string        `mapstructure:"user_agent" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// ExtractConfig tunes the extraction engine
type ExtractConfig struct {
	ContainerID  string   `mapstructure:"container_id" validate:"required"`
	MinCells     int      `mapstructure:"min_cells" validate:"gte=2,lte=7"`
	TodayMarkers []string `mapstructure:"today_markers" validate:"dive,required"`
}

// FallbackConfig holds the static times served when no live data is available
type FallbackConfig struct {
	Fajr   string `mapstructure:"fajr" validate:"required,clock"`
	Shuruk string `mapstructure:"shuruk" validate:"required,clock"`
	Dhohr  string `mapstructure:"dhohr" validate:"required,clock"`
	Asr    string `mapstructure:"asr" validate:"required,clock"`
	Magrib string `mapstructure:"magrib" validate:"required,clock"`
	Isha   string `mapstructure:"isha" validate:"required,clock"`
}

// Times returns the fallback times in table order
func (f FallbackConfig) Times() [6]string {
	return [6]string{f.Fajr, f.Shuruk, f.Dhohr, f.Asr, f.Magrib, f.Isha}
}

// ServerConfig configures the HTTP boundary
type ServerConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port" validate:"min=1,max=65535"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// StorageConfig locates the on-disk record store
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// NotifyConfig holds chat credentials for the notify command
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig configures the Telegram Bot API notifier
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIURL   string `mapstructure:"api_url" validate:"omitempty,url"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return loc, nil
}

// EngineOptions maps the extract section onto engine options.
func (c *Config) EngineOptions() extract.Options {
	return extract.Options{
		ContainerID:  c.Extract.ContainerID,
		MinCells:     c.Extract.MinCells,
		TodayMarkers: c.Extract.TodayMarkers,
	}
}

// SetDefaults registers every key with its default value. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "Europe/Stockholm")

	v.SetDefault("upstream.url", "https://www.islamiskaforbundet.se/wp-content/plugins/bonetider/Bonetider_Widget.php")
	v.SetDefault("upstream.city", "Uddevalla, SE")
	v.SetDefault("upstream.origin", "https://www.islamiskaforbundet.se")
	v.SetDefault("upstream.referer", "https://www.islamiskaforbundet.se/bonetider/")
	v.SetDefault("upstream.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_retries", 2)

	v.SetDefault("extract.container_id", extract.DefaultContainerID)
	v.SetDefault("extract.min_cells", extract.DefaultMinCells)
	v.SetDefault("extract.today_markers", extract.DefaultTodayMarkers)

	v.SetDefault("fallback.fajr", "06:26")
	v.SetDefault("fallback.shuruk", "08:54")
	v.SetDefault("fallback.dhohr", "12:17")
	v.SetDefault("fallback.asr", "13:19")
	v.SetDefault("fallback.magrib", "15:31")
	v.SetDefault("fallback.isha", "18:55")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8888)
	v.SetDefault("server.cache_ttl", 15*time.Minute)

	v.SetDefault("storage.data_dir", DefaultDataDir)

	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.telegram.api_url", "")

	v.SetDefault("log.level", "info")
}

// New returns a viper instance with defaults and environment binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile reads path when set, otherwise looks for .bonetider.yaml in the home
// and working directories. A missing search-path file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return prayer.IsClock(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("registering clock validator: %w", err)
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatValidationError(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "clock":
		return fmt.Sprintf("%s must be H:MM or HH:MM, got %q", field, e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", field, e.Tag(), e.Param(), e.Value())
	}
}
