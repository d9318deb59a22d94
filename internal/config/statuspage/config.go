package statuspage_config

import (
	"time"

	"github.com/lmello0/status-page/internal/obs"
	"github.com/lmello0/status-page/internal/outbox"
	pg "github.com/lmello0/status-page/internal/repository/postgres"
)

type Server struct {
	HTTPAddr         string        `mapstructure:"http_addr"`
	MetricsAddr      string        `mapstructure:"metrics_addr"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout  time.Duration `mapstructure:"graceful_timeout"`
	ExcludedLogPaths []string      `mapstructure:"excluded_log_paths"`
}

type HealthCheck struct {
	SyncInterval        time.Duration `mapstructure:"sync_interval"`
	UserAgent           string        `mapstructure:"user_agent"`
	VerifyTLS           bool          `mapstructure:"verify_tls"`
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxBodyBytes        int64         `mapstructure:"max_body_bytes"`
}

type Kafka struct {
	Enable            bool     `mapstructure:"enable"`
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int      `mapstructure:"partitions"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
}

type Redis struct {
	URL        string        `mapstructure:"url"`
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
}

type Config struct {
	App         obs.Service    `mapstructure:"app"`
	Server      Server         `mapstructure:"server"`
	DB          pg.Config      `mapstructure:"db"`
	OTEL        obs.OTELConfig `mapstructure:"otel"`
	Log         obs.LogConfig  `mapstructure:"log"`
	HealthCheck HealthCheck    `mapstructure:"healthcheck"`
	Kafka       Kafka          `mapstructure:"kafka"`
	Outbox      outbox.Config  `mapstructure:"outbox"`
	Redis       Redis          `mapstructure:"redis"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
