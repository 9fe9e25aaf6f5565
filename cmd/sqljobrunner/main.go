package main

import (
	"time"

	"go.uber.org/fx"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/internal/httpfx"
	"github.com/yurykabanov/sqljobrunner/internal/kubefx"
	"github.com/yurykabanov/sqljobrunner/internal/loggerfx"
	"github.com/yurykabanov/sqljobrunner/internal/metricsfx"
	"github.com/yurykabanov/sqljobrunner/internal/orchestratorfx"
	"github.com/yurykabanov/sqljobrunner/internal/runnerfx"
	"github.com/yurykabanov/sqljobrunner/internal/sqlfx"
)

func main() {
	logger := loggerfx.Logger()

	v, err := configfx.ViperProvider(logger, configfx.PFlags())
	if err != nil {
		logger.WithError(err).Fatal("Unable to read configuration")
	}

	mode, err := configfx.ModeProvider(v)
	if err != nil {
		logger.WithError(err).Fatal("Invalid MODE")
	}

	logger.Infof("Starting application in %s mode...", mode)

	var modeModules fx.Option
	switch mode {
	case configfx.ModeOrchestrator:
		modeModules = fx.Options(kubefx.Module, orchestratorfx.Module)
	case configfx.ModeRunner:
		modeModules = fx.Options(sqlfx.Module, runnerfx.Module)
	}

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),
		fx.Supply(v, mode),

		loggerfx.Module,
		configfx.Module,
		metricsfx.Module,
		httpfx.Module,
		modeModules,
	)

	app.Run()
}
