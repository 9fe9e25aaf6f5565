package loggerfx

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
)

func TestConfigureLogger(t *testing.T) {
	l := logrus.New()
	v := viper.New()
	v.Set(configfx.ConfigLogLevel, "debug")
	v.Set(configfx.ConfigLogFormat, "json")

	ConfigureLogger(l, v)

	assert.Equal(t, logrus.DebugLevel, l.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestConfigureLogger_Fallbacks(t *testing.T) {
	l := logrus.New()
	v := viper.New()
	v.Set(configfx.ConfigLogLevel, "loud")
	v.Set(configfx.ConfigLogFormat, "xml")

	ConfigureLogger(l, v)

	assert.Equal(t, logrus.InfoLevel, l.Level)
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestDefaultLoggerAdapter(t *testing.T) {
	l, hook := test.NewNullLogger()

	DefaultLoggerAdapter(l).Print("http: TLS handshake error")

	assert.Eventually(t, func() bool {
		entry := hook.LastEntry()
		return entry != nil && entry.Level == logrus.ErrorLevel && entry.Message == "http: TLS handshake error"
	}, time.Second, time.Millisecond)
}
