package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	calls     atomic.Int32
	olderThan time.Duration
	limit     int
	err       error
}

func (r *countingReconciler) ReconcileStale(_ context.Context, olderThan time.Duration, limit int) (service.ReconcileSummary, error) {
	r.calls.Add(1)
	r.olderThan, r.limit = olderThan, limit
	return service.ReconcileSummary{Checked: 1}, r.err
}

func TestCheckoutReconciler_RunOnce(t *testing.T) {
	r := &countingReconciler{}
	job := NewCheckoutReconciler(r, "")

	job.RunOnce(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, time.Minute, r.olderThan)
	assert.Equal(t, 50, r.limit)

	r.err = errors.New("db down")
	job.RunOnce(context.Background())
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestCheckoutReconciler_RunsOnSchedule(t *testing.T) {
	r := &countingReconciler{}
	job := NewCheckoutReconciler(r, "@every 1s")
	require.NoError(t, job.Start())
	defer job.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestCheckoutReconciler_BadSchedule(t *testing.T) {
	job := NewCheckoutReconciler(&countingReconciler{}, "not a schedule")
	assert.Error(t, job.Start())
}
