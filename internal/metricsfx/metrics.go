package metricsfx

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/internal/httpfx"
	"github.com/yurykabanov/sqljobrunner/pkg/http/handler"
	"github.com/yurykabanov/sqljobrunner/pkg/metrics"
)

func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Metrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func HealthHandler(logger logrus.FieldLogger, mode configfx.Mode) *handler.HealthHandler {
	return handler.NewHealthHandler(logger, string(mode))
}

func RegisterRoutes(router *mux.Router, reg *prometheus.Registry, health *handler.HealthHandler) {
	router.Handle(httpfx.PathMetrics, metrics.Handler(reg)).Methods("GET")
	router.Handle(httpfx.PathHealth, health).Methods("GET")
}
