package notifier_config

import (
	"time"

	"github.com/lmello0/status-page/internal/obs"
	pg "github.com/lmello0/status-page/internal/repository/postgres"
)

type KafkaIn struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

type SMTP struct {
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Config struct {
	App        obs.Service    `mapstructure:"app"`
	DB         pg.Config      `mapstructure:"db"`
	OTEL       obs.OTELConfig `mapstructure:"otel"`
	Log        obs.LogConfig  `mapstructure:"log"`
	In         KafkaIn        `mapstructure:"kafka_in"`
	SMTP       SMTP           `mapstructure:"smtp"`
	Recipients []string       `mapstructure:"recipients"`
	Server     Server         `mapstructure:"server"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
