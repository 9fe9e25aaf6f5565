package orchestratorfx

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"k8s.io/utils/clock"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/pkg/cluster"
	"github.com/yurykabanov/sqljobrunner/pkg/metrics"
	"github.com/yurykabanov/sqljobrunner/pkg/orchestrator"
)

const (
	EnvRunnerDuration    = "RUNNER_DURATION_MINUTES"
	EnvRunnerQueryWait   = "QUERY_WAIT_SECONDS"
	EnvRunnerUseEndpoint = "RUNNER_USE_ENDPOINT"
	EnvDatabaseDriver    = "DB_DRIVER"
)

// JobTemplate describes the runner job. Runner settings of this process are
// passed on so that jobs behave the same way the orchestrator was configured.
func JobTemplate(
	oc *configfx.OrchestratorConfig,
	rc *configfx.RunnerConfig,
	dc *configfx.DatabaseConfig,
) orchestrator.JobTemplate {
	return orchestrator.JobTemplate{
		Image:      oc.Image,
		SecretName: oc.SecretName,
		SecretKey:  oc.SecretKey,
		TTLSeconds: oc.TTLSeconds,
		NodeOS:     orchestrator.NodeOS(),
		Env: map[string]string{
			EnvRunnerDuration:    strconv.Itoa(int(rc.Duration / time.Minute)),
			EnvRunnerQueryWait:   strconv.Itoa(int(rc.QueryWait / time.Second)),
			EnvRunnerUseEndpoint: strconv.FormatBool(rc.UseEndpoint),
			EnvDatabaseDriver:    dc.Driver,
		},
	}
}

func Schedule(oc *configfx.OrchestratorConfig) (cron.Schedule, error) {
	if oc.Schedule == "" {
		return orchestrator.Interval(oc.Interval), nil
	}

	schedule, err := cron.ParseStandard(oc.Schedule)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid batch schedule '%s'", oc.Schedule)
	}

	return schedule, nil
}

func SubmitterConfig(oc *configfx.OrchestratorConfig, template orchestrator.JobTemplate) (orchestrator.Config, error) {
	schedule, err := Schedule(oc)
	if err != nil {
		return orchestrator.Config{}, err
	}

	return orchestrator.Config{
		Namespace: oc.Namespace,
		JobCount:  oc.JobCount,
		Schedule:  schedule,
		Template:  template,
	}, nil
}

func Submitter(
	logger logrus.FieldLogger,
	client *cluster.JobClient,
	config orchestrator.Config,
	m *metrics.Metrics,
) *orchestrator.Submitter {
	return orchestrator.NewSubmitter(logger, client, config, clock.RealClock{}, m)
}

func RunSubmitter(lc fx.Lifecycle, submitter *orchestrator.Submitter, config orchestrator.Config, logger *logrus.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.WithFields(logrus.Fields{
				"namespace": config.Namespace,
				"jobs":      config.JobCount,
				"image":     config.Template.Image,
			}).Info("Starting batch submitter")

			go func() {
				defer close(done)
				submitter.Run(ctx)
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

// RequireDatabaseConfig makes a missing connection string fatal in
// orchestrator mode too, even though the orchestrator never connects.
func RequireDatabaseConfig(*configfx.DatabaseConfig) {}
