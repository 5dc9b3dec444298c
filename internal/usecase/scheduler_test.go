package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualDriver fires the job synchronously a fixed number of times.
type manualDriver struct {
	triggers int
	stopped  bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	for i := 0; i < d.triggers; i++ {
		job(time.Now())
	}
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestScheduler_EachTriggerIsAFullRun(t *testing.T) {
	f := newPipelineFixture()
	p, _ := f.build(t)
	driver := &manualDriver{triggers: 2}
	s := NewScheduler(driver, p, nil)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Len(t, f.renderer.rendered, 2)
	assert.Len(t, f.history.runs, 2)
	assert.True(t, driver.stopped)
}

func TestScheduler_FailedRunDoesNotStopLaterRuns(t *testing.T) {
	f := newPipelineFixture()
	f.renderer.err = assert.AnError
	p, _ := f.build(t)
	s := NewScheduler(&manualDriver{triggers: 3}, p, nil)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, 9, f.downloader.callCount("https://slow.example.com/rss"), "three full runs were attempted")
}

func TestScheduler_NilDriver(t *testing.T) {
	s := NewScheduler(nil, nil, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
