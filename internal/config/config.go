package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Editor  EditorConfig  `yaml:"editor"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url" default:"http://localhost:8000"`

	// Zero keeps the transport default.
	Timeout time.Duration `yaml:"timeout" default:"0s"`

	AdminPageSize  int `yaml:"admin_page_size" default:"20"`
	PublicPageSize int `yaml:"public_page_size" default:"10"`
}

type CacheConfig struct {
	StaleTime     time.Duration `yaml:"stale_time" default:"30s"`
	PostStaleTime time.Duration `yaml:"post_stale_time" default:"5m"`
	SnapshotDB    string        `yaml:"snapshot_db" default:"./archive-cache.db"`

	// zstd or gzip
	SnapshotCodec string `yaml:"snapshot_codec" default:"zstd"`
}

type AuthConfig struct {
	// Identity provider user allowed into the dashboard.
	AdminUserID string `yaml:"admin_user_id" default:""`
	EnforceGate bool   `yaml:"enforce_gate" default:"false"`
}

type StorageConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Bucket   string `yaml:"bucket" default:"archive-exports"`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`
	Prefix   string `yaml:"prefix" default:"posts"`
}

type EventsConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
}

type EditorConfig struct {
	HMargin     string  `yaml:"h_margin" default:"5px"`
	BgOpacity   float64 `yaml:"bg_opacity" default:"0.95"`
	TitleWeight string  `yaml:"title_weight" default:"700"`
	DateFormat  string  `yaml:"date_format" default:"2 January 2006"`

	// mmark or classic
	MarkdownRenderer string `yaml:"markdown_renderer" default:"mmark"`
	HighlightTheme   string `yaml:"highlight_theme" default:"monokai"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf(ErrInvalidConfigFmt, "api.base_url", "must not be empty")
	}
	if c.API.AdminPageSize < 1 {
		return fmt.Errorf(ErrInvalidConfigFmt, "api.admin_page_size", "must be positive")
	}
	if c.API.PublicPageSize < 1 {
		return fmt.Errorf(ErrInvalidConfigFmt, "api.public_page_size", "must be positive")
	}
	if c.Editor.BgOpacity < 0 || c.Editor.BgOpacity > 1 {
		return fmt.Errorf(ErrInvalidConfigFmt, "editor.bg_opacity", "must be between 0 and 1")
	}
	if r := c.Editor.MarkdownRenderer; r != "mmark" && r != "classic" {
		return fmt.Errorf(ErrInvalidConfigFmt, "editor.markdown_renderer", "must be mmark or classic")
	}
	if codec := c.Cache.SnapshotCodec; codec != "zstd" && codec != "gzip" {
		return fmt.Errorf(ErrInvalidConfigFmt, "cache.snapshot_codec", "must be zstd or gzip")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf(ErrInvalidConfigFmt, "storage.bucket", "required when storage is enabled")
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int, reflect.Int64:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
