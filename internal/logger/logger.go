package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ppiankov/claimcheck/internal/model"
)

// New builds a logrus logger from the log configuration.
// Text output is the default; "json" switches to the JSON formatter.
// When a log file is configured, output is tee'd into a rotating file.
func New(cfg model.LogConfig) *logrus.Logger {
	base := logrus.New()

	if strings.EqualFold(cfg.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	base.SetOutput(out)

	base.SetLevel(ParseLevel(cfg.Level))
	return base
}

// ParseLevel maps a level name to a logrus level, defaulting to info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests and library use
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithRequestID tags a logger with a request id, generating one if empty
func WithRequestID(log logrus.FieldLogger, requestID string) (logrus.FieldLogger, string) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return log.WithField("request_id", requestID), requestID
}
