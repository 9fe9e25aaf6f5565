package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	batchv1 "k8s.io/api/batch/v1"
	"k8s.io/utils/clock"

	"github.com/yurykabanov/sqljobrunner/pkg/appcontext"
	"github.com/yurykabanov/sqljobrunner/pkg/metrics"
)

type jobClient interface {
	SecretExists(ctx context.Context, namespace, name string) error
	CreateJob(ctx context.Context, namespace string, job *batchv1.Job) error
}

type Config struct {
	Namespace string
	JobCount  int

	// Schedule computes the next round start from the moment the previous
	// round settled.
	Schedule cron.Schedule

	Template JobTemplate
}

// Interval is a cron.Schedule with a fixed delay. Unlike cron.Every it keeps
// sub-second precision, so the wait after a round is exactly the interval.
type Interval time.Duration

func (i Interval) Next(t time.Time) time.Time {
	return t.Add(time.Duration(i))
}

type JobFailure struct {
	Name string
	Err  error
}

// BatchResult is the outcome of one submission round. Err is set when the
// round was aborted before any job was created.
type BatchResult struct {
	BatchId   string
	Submitted []string
	Failed    []JobFailure
	Err       error
}

// Error combines the round error and every per-job failure.
func (r BatchResult) Error() error {
	err := r.Err
	for _, f := range r.Failed {
		err = multierr.Append(err, errors.Wrap(f.Err, f.Name))
	}
	return err
}

// Submitter periodically creates a batch of runner jobs. Failures never stop
// the loop: they are reported through BatchResult and logged.
type Submitter struct {
	logger  logrus.FieldLogger
	client  jobClient
	config  Config
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewSubmitter(
	logger logrus.FieldLogger,
	client jobClient,
	config Config,
	clk clock.Clock,
	m *metrics.Metrics,
) *Submitter {
	return &Submitter{
		logger:  logger,
		client:  client,
		config:  config,
		clock:   clk,
		metrics: m,
	}
}

// Run submits rounds until ctx is cancelled. The next round is scheduled only
// after every submission of the current one has settled.
func (s *Submitter) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result := s.SubmitBatch(ctx)
		s.report(result)

		wait := s.nextWait()
		s.logger.Infof("Waiting %s before creating next batch...", wait)

		select {
		case <-ctx.Done():
			s.logger.Info("Stopping batch submitter")
			return
		case <-s.clock.After(wait):
		}
	}
}

func (s *Submitter) SubmitBatch(ctx context.Context) BatchResult {
	now := s.clock.Now()
	batchId := BatchId(now)

	ctx = appcontext.WithBatchId(ctx, batchId)
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	result := BatchResult{BatchId: batchId}

	s.metrics.BatchStarted()

	err := s.client.SecretExists(ctx, s.config.Namespace, s.config.Template.SecretName)
	if err != nil {
		s.metrics.CredentialCheckFailed()
		result.Err = errors.Wrap(err, "Credential check failed")
		return result
	}

	logger.Infof("Creating %d jobs at %s UTC...", s.config.JobCount, now.UTC().Format("2006-01-02 15:04:05"))

	jobs := make([]*batchv1.Job, s.config.JobCount)
	outcomes := make([]error, s.config.JobCount)

	wg := &sync.WaitGroup{}
	wg.Add(len(jobs))

	for i := range jobs {
		jobs[i] = BuildJob(s.config.Template, batchId, i+1)

		go func(i int) {
			defer wg.Done()
			outcomes[i] = s.createJob(appcontext.WithJobName(ctx, jobs[i].Name), jobs[i])
		}(i)
	}

	wg.Wait()

	for i, job := range jobs {
		if outcomes[i] != nil {
			result.Failed = append(result.Failed, JobFailure{Name: job.Name, Err: outcomes[i]})
			continue
		}
		result.Submitted = append(result.Submitted, job.Name)
	}

	s.metrics.JobsSubmitted(len(result.Submitted), len(result.Failed))

	return result
}

func (s *Submitter) createJob(ctx context.Context, job *batchv1.Job) (err error) {
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while creating job: %v", r)
		}

		if err != nil {
			logger.WithError(err).Error("Unable to create job")
			return
		}
		logger.Debug("Created job")
	}()

	return s.client.CreateJob(ctx, s.config.Namespace, job)
}

func (s *Submitter) report(result BatchResult) {
	logger := s.logger.WithField("batch", result.BatchId)

	err := result.Error()

	if result.Err != nil {
		logger.WithError(err).Error("ERROR creating jobs")
		return
	}

	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"submitted": len(result.Submitted),
			"failed":    len(result.Failed),
		}).Warnf("Created %d of %d jobs in batch %s", len(result.Submitted), s.config.JobCount, result.BatchId)
		return
	}

	logger.Infof("Successfully created %d jobs in batch %s", len(result.Submitted), result.BatchId)
}

func (s *Submitter) nextWait() time.Duration {
	now := s.clock.Now()

	wait := s.config.Schedule.Next(now).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
