package runner

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/yurykabanov/sqljobrunner/pkg/appcontext"
	"github.com/yurykabanov/sqljobrunner/pkg/metrics"
)

type Config struct {
	Duration time.Duration
	Wait     time.Duration
}

// Summary is what a finished run reports.
type Summary struct {
	StartedAt time.Time
	EndsAt    time.Time
	Executed  int
	Failed    int
}

// Driver repeats a query at a fixed cadence until its duration elapses. One
// query is in flight at a time; the end time is checked only between queries.
type Driver struct {
	logger  logrus.FieldLogger
	source  Source
	config  Config
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewDriver(logger logrus.FieldLogger, source Source, config Config, clk clock.Clock, m *metrics.Metrics) *Driver {
	return &Driver{
		logger:  logger,
		source:  source,
		config:  config,
		clock:   clk,
		metrics: m,
	}
}

func (d *Driver) Run(ctx context.Context) Summary {
	summary := Summary{StartedAt: d.clock.Now()}
	summary.EndsAt = summary.StartedAt.Add(d.config.Duration)

	d.logger.Infof(
		"Starting SQL query execution for %s (until %s UTC)...",
		d.config.Duration, summary.EndsAt.UTC().Format("2006-01-02 15:04:05"),
	)

	for d.clock.Now().Before(summary.EndsAt) && ctx.Err() == nil {
		d.iterate(ctx, &summary)

		if d.config.Wait > 0 {
			select {
			case <-ctx.Done():
			case <-d.clock.After(d.config.Wait):
			}
		}
	}

	d.logger.WithFields(logrus.Fields{
		"executed": summary.Executed,
		"failed":   summary.Failed,
	}).Infof("Runner completed. %d queries executed in %s.", summary.Executed, d.config.Duration)

	return summary
}

func (d *Driver) iterate(ctx context.Context, summary *Summary) {
	result, err := d.source.Query(ctx)
	d.metrics.QueryFinished(err)

	if err != nil {
		summary.Failed++
		d.logger.WithError(err).Error("ERROR executing query")
		return
	}

	summary.Executed++

	logger := appcontext.LoggerFromContext(d.logger, appcontext.WithQuerySeq(ctx, summary.Executed))
	logger.Infof("Query %d: %s", summary.Executed, result)
}
