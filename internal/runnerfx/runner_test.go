package runnerfx

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/internal/httpfx"
	"github.com/yurykabanov/sqljobrunner/internal/loggerfx"
	"github.com/yurykabanov/sqljobrunner/internal/metricsfx"
	"github.com/yurykabanov/sqljobrunner/internal/sqlfx"
)

func newApp(t *testing.T, config *configfx.RunnerConfig) (*fxtest.App, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	v := viper.New()
	v.Set(configfx.ConfigServerAddress, "127.0.0.1:0")

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(
			v,
			logger,
			configfx.ModeRunner,
			config,
			&configfx.DatabaseConfig{Driver: configfx.DriverSqlite, ConnectionString: ":memory:"},
			&configfx.PoolConfig{MinSize: 1, MaxSize: 2, ConnectTimeout: time.Second},
		),
		fx.Provide(loggerfx.FieldLogger),
		fx.Provide(loggerfx.DefaultLoggerAdapter),
		httpfx.Module,
		metricsfx.Module,
		sqlfx.Module,
		Module,
	)

	return app, hook
}

func queryMessages(hook *test.Hook) []string {
	var messages []string
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "Query ") {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

func waitForShutdown(t *testing.T, done <-chan os.Signal) {
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not shut the application down")
	}
}

func TestModule_DirectQueries(t *testing.T) {
	app, hook := newApp(t, &configfx.RunnerConfig{
		Duration:  300 * time.Millisecond,
		QueryWait: 100 * time.Millisecond,
		Query:     "SELECT 42",
	})

	done := app.Done()
	app.RequireStart()
	waitForShutdown(t, done)
	app.RequireStop()

	messages := queryMessages(hook)
	require.NotEmpty(t, messages)
	assert.Equal(t, "Query 1: 42", messages[0])
}

func TestModule_EndpointQueries(t *testing.T) {
	app, hook := newApp(t, &configfx.RunnerConfig{
		Duration:      300 * time.Millisecond,
		QueryWait:     100 * time.Millisecond,
		UseEndpoint:   true,
		EndpointGrace: 10 * time.Millisecond,
	})

	done := app.Done()
	app.RequireStart()
	waitForShutdown(t, done)
	app.RequireStop()

	messages := queryMessages(hook)
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[0], `"status":"success"`)
	assert.Contains(t, messages[0], `"timestamp"`)
}

func TestModule_ZeroDuration(t *testing.T) {
	app, hook := newApp(t, &configfx.RunnerConfig{Query: "SELECT 1"})

	done := app.Done()
	app.RequireStart()
	waitForShutdown(t, done)
	app.RequireStop()

	assert.Empty(t, queryMessages(hook))

	completed := false
	for _, e := range hook.AllEntries() {
		completed = completed || strings.HasPrefix(e.Message, "Runner completed. 0 queries executed")
	}
	assert.True(t, completed)
}
