package obs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrLogLevel = errors.New("unknown log level")

// Service identifies the running binary; every entry carries it.
type Service struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// LogConfig is the `log` section shared by the statuspage and notifier
// configs. Fields are static key/values added to every entry, such as a
// region or instance name.
type LogConfig struct {
	Level  string            `mapstructure:"level"`
	Pretty bool              `mapstructure:"pretty"`
	Fields map[string]string `mapstructure:"fields"`
}

// ParseLevel accepts zap level names in any case; empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrLogLevel, s)
	}
	return lvl, nil
}

func NewLogger(svc Service, c LogConfig) (*zap.Logger, error) {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.Fields(baseFields(svc, c.Fields)...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// baseFields puts the service identity first and the extra fields in key
// order. Extras cannot shadow the identity keys.
func baseFields(svc Service, extra map[string]string) []zap.Field {
	fields := []zap.Field{
		zap.String("service", svc.Name),
		zap.String("env", svc.Env),
		zap.String("version", svc.Version),
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		switch k {
		case "service", "env", "version":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String(k, extra[k]))
	}
	return fields
}
