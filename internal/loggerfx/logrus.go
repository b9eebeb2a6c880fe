package loggerfx

import (
	"context"
	"io"
	"log"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	ConfigLogLevel  = "log.level"
	ConfigLogFormat = "log.format"
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})
}

func Logger() *logrus.Logger {
	return logger
}

func FieldLogger(logger *logrus.Logger) logrus.FieldLogger {
	return logger
}

// DefaultLoggerAdapter feeds messages of the standard library logger (e.g.
// http.Server.ErrorLog) into logrus at error level.
func DefaultLoggerAdapter(lc fx.Lifecycle, logger *logrus.Logger) *log.Logger {
	w := logger.WriterLevel(logrus.ErrorLevel)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return w.Close()
		},
	})

	return NewDefaultLogger(w)
}

func NewDefaultLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}

func ConfigureLogger(logger *logrus.Logger, v *viper.Viper) {
	logLevel := v.GetString(ConfigLogLevel)
	logFormat := v.GetString(ConfigLogFormat)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	switch logFormat {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	default:
		fallthrough
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
