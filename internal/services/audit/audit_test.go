package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	statsUC "github.com/fastygo/tasktrail/usecase/stats"
)

type stubAuditor struct {
	drifts []statsUC.Drift
	err    error
}

func (s stubAuditor) Audit(context.Context) ([]statsUC.Drift, error) {
	return s.drifts, s.err
}

func TestRunLogsEachDrift(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	job, err := New(stubAuditor{drifts: []statsUC.Drift{
		{UID: "u1", Stored: 3, Recounted: 1},
		{UID: "u2", Stored: 0, Recounted: 2},
	}}, "0 0 3 * * *", zap.New(core))
	require.NoError(t, err)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	warnings := logs.FilterMessage("completion counter drift").All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "u1", warnings[0].ContextMap()["user_id"])
	assert.EqualValues(t, 3, warnings[0].ContextMap()["stored"])
}

func TestRunPropagatesAuditError(t *testing.T) {
	job, err := New(stubAuditor{err: errors.New("scan failed")}, "@every 1h", nil)
	require.NoError(t, err)
	_, err = job.Run(context.Background())
	assert.EqualError(t, err, "scan failed")
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(stubAuditor{}, "every tuesday", nil)
	assert.ErrorContains(t, err, "audit schedule")
}

func TestStartStop(t *testing.T) {
	job, err := New(stubAuditor{}, "@every 1h", nil)
	require.NoError(t, err)
	job.Start()
	job.Stop(context.Background())
}
