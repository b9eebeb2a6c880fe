package loggerfx

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogger(t *testing.T) {
	logger := logrus.New()

	v := viper.New()
	v.Set(ConfigLogLevel, "debug")
	v.Set(ConfigLogFormat, "text")

	ConfigureLogger(logger, v)

	assert.Equal(t, logrus.DebugLevel, logger.Level)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestConfigureLogger_Defaults(t *testing.T) {
	logger := logrus.New()

	v := viper.New()
	v.Set(ConfigLogLevel, "loud")

	ConfigureLogger(logger, v)

	assert.Equal(t, logrus.InfoLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNewDefaultLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()

	w := logger.WriterLevel(logrus.ErrorLevel)
	defer w.Close()

	NewDefaultLogger(w).Print("http: TLS handshake error")

	// the writer is drained by a goroutine
	assert.Eventually(t, func() bool { return hook.LastEntry() != nil }, time.Second, 10*time.Millisecond)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "http: TLS handshake error", entry.Message)
}
