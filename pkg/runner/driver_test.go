package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// region sourceMock
type sourceMock struct {
	mock.Mock
}

func (m *sourceMock) Query(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// endregion

var startTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// run drives d to completion, stepping clk by the configured wait whenever the
// driver is waiting.
func run(ctx context.Context, d *Driver, clk *testingclock.FakeClock) Summary {
	done := make(chan Summary, 1)
	go func() {
		done <- d.Run(ctx)
	}()

	for {
		select {
		case summary := <-done:
			return summary
		case <-time.After(time.Millisecond):
			if clk.HasWaiters() {
				clk.Step(d.config.Wait)
			}
		}
	}
}

func TestDriver_Run_ZeroDuration(t *testing.T) {
	logger, hook := test.NewNullLogger()
	source := &sourceMock{}

	d := NewDriver(logger, source, Config{Duration: 0, Wait: 10 * time.Second}, testingclock.NewFakeClock(startTime), nil)

	summary := d.Run(context.Background())

	assert.Equal(t, 0, summary.Executed)
	source.AssertNotCalled(t, "Query", mock.Anything)
	assert.Contains(t, hook.LastEntry().Message, "0 queries executed")
}

func TestDriver_Run_StopsAtEndTime(t *testing.T) {
	logger, hook := test.NewNullLogger()
	source := &sourceMock{}
	source.On("Query", mock.Anything).Return("847", nil)

	clk := testingclock.NewFakeClock(startTime)
	d := NewDriver(logger, source, Config{Duration: time.Minute, Wait: 10 * time.Second}, clk, nil)

	summary := run(context.Background(), d, clk)

	// queries at +0s, +10s ... +50s
	assert.Equal(t, 6, summary.Executed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, startTime.Add(time.Minute), summary.EndsAt)
	source.AssertNumberOfCalls(t, "Query", 6)
	assert.Contains(t, hook.LastEntry().Message, "6 queries executed")
}

func TestDriver_Run_FailuresAreNotCounted(t *testing.T) {
	logger, _ := test.NewNullLogger()
	source := &sourceMock{}
	source.On("Query", mock.Anything).Return("", errors.New("login failed")).Twice()
	source.On("Query", mock.Anything).Return("847", nil)

	clk := testingclock.NewFakeClock(startTime)
	d := NewDriver(logger, source, Config{Duration: 5 * time.Second, Wait: time.Second}, clk, nil)

	summary := run(context.Background(), d, clk)

	assert.Equal(t, 3, summary.Executed)
	assert.Equal(t, 2, summary.Failed)
}

func TestDriver_Run_InFlightQueryCompletes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	clk := testingclock.NewFakeClock(startTime)

	source := &sourceMock{}
	source.On("Query", mock.Anything).Run(func(mock.Arguments) {
		// the query outlives the whole run
		clk.Step(2 * time.Minute)
	}).Return("1", nil)

	d := NewDriver(logger, source, Config{Duration: time.Minute, Wait: time.Second}, clk, nil)

	summary := run(context.Background(), d, clk)

	assert.Equal(t, 1, summary.Executed)
	source.AssertNumberOfCalls(t, "Query", 1)
}

func TestDriver_Run_CancelledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	source := &sourceMock{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(logger, source, Config{Duration: time.Minute, Wait: time.Second}, testingclock.NewFakeClock(startTime), nil)

	summary := d.Run(ctx)

	assert.Equal(t, 0, summary.Executed)
	source.AssertNotCalled(t, "Query", mock.Anything)
}

func TestDriver_Run_CancelInterruptsWait(t *testing.T) {
	logger, _ := test.NewNullLogger()
	clk := testingclock.NewFakeClock(startTime)

	source := &sourceMock{}
	source.On("Query", mock.Anything).Return("1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDriver(logger, source, Config{Duration: time.Hour, Wait: 10 * time.Minute}, clk, nil)

	done := make(chan Summary, 1)
	go func() {
		done <- d.Run(ctx)
	}()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	cancel()

	select {
	case summary := <-done:
		assert.Equal(t, 1, summary.Executed)
	case <-time.After(time.Second):
		t.Fatal("run did not stop while waiting for the next query")
	}
	source.AssertNumberOfCalls(t, "Query", 1)
}
