package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Source     SourceConfig     `mapstructure:"source"`
	DB         DBConfig         `mapstructure:"db"`
	Tenant     TenantConfig     `mapstructure:"tenant"`
	Cron       CronConfig       `mapstructure:"cron"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// SourceConfig points at the chat-platform database we replicate from.
// The connection is opened read-only by convention; the sync engine never
// writes through it.
type SourceConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// TenantConfig binds the destination tenant (by slug) to the integer tenant
// id used in source-store queries. The pairing is configuration, never
// inferred.
type TenantConfig struct {
	Slug     string `mapstructure:"slug"`
	Name     string `mapstructure:"name"`
	SourceID int64  `mapstructure:"source_id"`
}

// DisplayName is the tenant's human-readable name, falling back to the slug.
func (t TenantConfig) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Slug
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sync    string `mapstructure:"sync"`
}

type SyncConfig struct {
	PageSize      int           `mapstructure:"page_size"`
	MaxPages      int           `mapstructure:"max_pages"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchPause    time.Duration `mapstructure:"batch_pause"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`
	Resume        bool          `mapstructure:"resume"`
}

type ScoringConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
}

type TranscribeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("source.max_open_conns", 5)
	v.SetDefault("source.max_idle_conns", 2)
	v.SetDefault("source.conn_max_lifetime", "30m")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("tenant.slug", "")
	v.SetDefault("tenant.name", "")
	v.SetDefault("tenant.source_id", 1)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sync", "@every 10m")
	v.SetDefault("sync.page_size", 1000)
	v.SetDefault("sync.max_pages", 50)
	v.SetDefault("sync.batch_size", 500)
	v.SetDefault("sync.batch_pause", "300ms")
	v.SetDefault("sync.max_retries", 5)
	v.SetDefault("sync.retry_delay", "3s")
	v.SetDefault("sync.max_retry_delay", "60s")
	v.SetDefault("sync.resume", true)
	v.SetDefault("scoring.enabled", false)
	v.SetDefault("scoring.scan_interval", "5m")
	v.SetDefault("scoring.batch_size", 10)
	v.SetDefault("scoring.model", "claude-sonnet-4-5")
	v.SetDefault("scoring.max_tokens", 4096)
	v.SetDefault("transcribe.base_url", "")
	v.SetDefault("transcribe.timeout", "60s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
