package runnerfx

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"k8s.io/utils/clock"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/internal/httpfx"
	"github.com/yurykabanov/sqljobrunner/pkg/http/handler"
	"github.com/yurykabanov/sqljobrunner/pkg/metrics"
	"github.com/yurykabanov/sqljobrunner/pkg/query"
	"github.com/yurykabanov/sqljobrunner/pkg/runner"
)

const endpointClientTimeout = 60 * time.Second

// Source picks where each iteration's result comes from: the local query
// endpoint, or a connection opened for every query.
func Source(
	config *configfx.RunnerConfig,
	listener net.Listener,
	executor *query.FreshExecutor,
	logger *logrus.Logger,
) runner.Source {
	if config.UseEndpoint {
		url := httpfx.LocalURL(listener, httpfx.PathQuery)
		logger.WithField("url", url).Debug("Querying through local endpoint")

		return runner.NewEndpointSource(&http.Client{Timeout: endpointClientTimeout}, url)
	}

	return runner.NewDirectSource(executor, config.Query)
}

func QueryHandler(logger logrus.FieldLogger, executor *query.PoolExecutor) *handler.QueryHandler {
	return handler.NewQueryHandler(logger, executor)
}

func RegisterQueryRoute(router *mux.Router, h *handler.QueryHandler) {
	router.Handle(httpfx.PathQuery, h).Methods("GET")
}

func Driver(
	logger logrus.FieldLogger,
	source runner.Source,
	config *configfx.RunnerConfig,
	m *metrics.Metrics,
) *runner.Driver {
	return runner.NewDriver(logger, source, runner.Config{
		Duration: config.Duration,
		Wait:     config.QueryWait,
	}, clock.RealClock{}, m)
}

// RunDriver starts the polling loop once the application is up and shuts the
// application down when the loop is over.
func RunDriver(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	driver *runner.Driver,
	config *configfx.RunnerConfig,
	logger *logrus.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)

				if config.UseEndpoint && config.EndpointGrace > 0 {
					logger.Debugf("Waiting %s for the query endpoint to come up", config.EndpointGrace)

					select {
					case <-ctx.Done():
						return
					case <-time.After(config.EndpointGrace):
					}
				}

				driver.Run(ctx)

				if err := shutdowner.Shutdown(); err != nil {
					logger.WithError(err).Error("Unable to shut down after runner completed")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
