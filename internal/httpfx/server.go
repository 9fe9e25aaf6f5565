package httpfx

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/pkg/http/middleware"
)

const (
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
	PathQuery   = "/query"
)

type HttpServerConfig struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	EnableRequestsLog bool
}

func HttpServerConfigProvider(v *viper.Viper, mode configfx.Mode) (*HttpServerConfig, error) {
	address := strings.TrimSpace(v.GetString(configfx.ConfigServerAddress))
	if address == "" {
		address = configfx.DefaultRunnerServerAddress
		if mode == configfx.ModeOrchestrator {
			address = configfx.DefaultOrchestratorServerAddress
		}
	}

	return &HttpServerConfig{
		Address:           address,
		ReadTimeout:       v.GetDuration(configfx.ConfigServerTimeoutRead),
		WriteTimeout:      v.GetDuration(configfx.ConfigServerTimeoutWrite),
		EnableRequestsLog: v.GetBool(configfx.ConfigServerLogRequests),
	}, nil
}

func HttpServer(
	config *HttpServerConfig,
	logger *logrus.Logger,
	defaultLogger *log.Logger,
	router *mux.Router,
) (*http.Server, error) {
	var h http.Handler = router

	if config.EnableRequestsLog {
		h = middleware.WithRequestLogging(h, logger, PathHealth, PathMetrics)
	}

	h = middleware.WithRequestId(h, middleware.DefaultRequestIdProvider)

	return &http.Server{
		Addr:         config.Address,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		ErrorLog:     defaultLogger,
		Handler:      h,
	}, nil
}

func HttpRouter() (*mux.Router, error) {
	return mux.NewRouter(), nil
}

// Listener binds the address eagerly, so the server accepts connections as
// soon as the application starts.
func Listener(config *HttpServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Address)
}

func RunServer(lc fx.Lifecycle, listener net.Listener, server *http.Server, logger *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.WithField("address", listener.Addr().String()).Info("Starting HTTP server")

			go func() {
				if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// LocalURL turns the listener address into a URL reachable from this process.
func LocalURL(listener net.Listener, path string) string {
	host, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		return "http://" + listener.Addr().String() + path
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}

	return "http://" + net.JoinHostPort(host, port) + path
}
