package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Application settings
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Import  ImportConfig  `mapstructure:"import"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	AI      AIConfig      `mapstructure:"ai"`
	Export  ExportConfig  `mapstructure:"export"`
}

// Server settings
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ImportConfig tunes the campaign report parser.
type ImportConfig struct {
	DefaultCurrency  string   `mapstructure:"default_currency"`
	HeaderScanWindow int      `mapstructure:"header_scan_window"`
	HeaderMarkers    []string `mapstructure:"header_markers"`
	DefaultType      string   `mapstructure:"default_type"`
	DefaultStatus    string   `mapstructure:"default_status"`
	DefaultStrategy  string   `mapstructure:"default_strategy"`
	MaxUploadBytes   int64    `mapstructure:"max_upload_bytes"`
	SkipTotalRows    bool     `mapstructure:"skip_total_rows"`
}

// StoreConfig selects the campaign collection backend.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig enables the distributed merge lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// AIConfig configures document extraction. Empty APIKey disables it.
type AIConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	BaseURL            string  `mapstructure:"base_url"`
	Model              string  `mapstructure:"model"`
	MaxTokens          int64   `mapstructure:"max_tokens"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
}

type ExportConfig struct {
	SinkURL    string        `mapstructure:"sink_url"`
	SinkSecret string        `mapstructure:"sink_secret"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads adsimport.yaml from the working directory when present and
// applies ADSIMPORT_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("adsimport")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADSIMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")

	v.SetDefault("import.default_currency", "USD")
	v.SetDefault("import.header_scan_window", 20)
	v.SetDefault("import.header_markers", []string{"campaign", "кампания"})
	v.SetDefault("import.default_type", "Search")
	v.SetDefault("import.default_status", "Enabled")
	v.SetDefault("import.default_strategy", "Not set")
	v.SetDefault("import.max_upload_bytes", 20<<20)
	v.SetDefault("import.skip_total_rows", true)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.max_conns", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.rate_limit_per_second", 2)

	v.SetDefault("export.sink_url", "")
	v.SetDefault("export.sink_secret", "")
	v.SetDefault("export.timeout", 30*time.Second)
}
