package scheduler

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSchedulerLifecycle(t *testing.T) {
	sched := NewScheduler(nil, nil, testLogger())
	assert.False(t, sched.IsRunning())
	assert.True(t, sched.GetNextRun().IsZero())

	require.NoError(t, sched.ScheduleCycles("@every 15m"))
	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.False(t, sched.GetNextRun().IsZero())

	sched.Stop()
	assert.False(t, sched.IsRunning())
}

func TestStartWithoutJobs(t *testing.T) {
	sched := NewScheduler(nil, nil, testLogger())
	err := sched.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no jobs scheduled")
}

func TestStartTwice(t *testing.T) {
	sched := NewScheduler(nil, nil, testLogger())
	require.NoError(t, sched.ScheduleCycles("@hourly"))
	require.NoError(t, sched.Start())
	defer sched.Stop()

	assert.Error(t, sched.Start())
}

func TestScheduleWhileRunning(t *testing.T) {
	sched := NewScheduler(nil, nil, testLogger())
	require.NoError(t, sched.ScheduleCycles("@hourly"))
	require.NoError(t, sched.Start())
	defer sched.Stop()

	assert.Error(t, sched.ScheduleCycles("@every 5m"))
	assert.Error(t, sched.SchedulePolling(60, []string{"basketball_nba"}))
}

func TestInvalidCronExpression(t *testing.T) {
	sched := NewScheduler(nil, nil, testLogger())
	assert.Error(t, sched.ScheduleCycles("not a cron expression"))
}
