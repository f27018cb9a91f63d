package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/metrics"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository/memory"
)

const testRestartDelay = 20 * time.Millisecond

func newTestController(t *testing.T) (*Controller, *memory.Store, *metrics.Metrics) {
	t.Helper()
	store := memory.New()
	m := metrics.New()
	c, err := New(Options{
		Store:              store,
		Logger:             zap.NewNop(),
		Metrics:            m,
		RegionRestartDelay: testRestartDelay,
		GridRestartDelay:   testRestartDelay,
	})
	require.NoError(t, err)
	t.Cleanup(c.Wait)
	return c, store, m
}

func createGrid(t *testing.T, store *memory.Store) *model.Grid {
	t.Helper()
	g, err := store.CreateGrid(context.Background(), model.InsertGrid{
		Name:            "Main",
		Nickname:        "main",
		AdminEmail:      "admin@example.com",
		ExternalAddress: "localhost",
	})
	require.NoError(t, err)
	return g
}

func createRegion(t *testing.T, store *memory.Store, gridID int64) *model.Region {
	t.Helper()
	r, err := store.CreateRegion(context.Background(), model.InsertRegion{GridID: gridID, Name: "Island"})
	require.NoError(t, err)
	return r
}

func waitDone(t *testing.T, r *Restart) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("restart did not complete")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Logger: zap.NewNop(), Metrics: metrics.New()})
	assert.EqualError(t, err, "nil Store is invalid")

	_, err = New(Options{Store: memory.New(), Metrics: metrics.New()})
	assert.EqualError(t, err, "nil Logger is invalid")

	c, err := New(Options{Store: memory.New(), Logger: zap.NewNop(), Metrics: metrics.New()})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegionRestartDelay, c.regionRestartDelay)
	assert.Equal(t, DefaultGridRestartDelay, c.gridRestartDelay)
}

func TestGridStartStop(t *testing.T) {
	c, store, m := newTestController(t)
	ctx := context.Background()
	g := createGrid(t, store)

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	started, err := c.StartGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, started.Status)
	assert.True(t, started.IsRunning)
	require.NotNil(t, started.LastStarted)
	assert.Equal(t, fixed, *started.LastStarted)

	again, err := c.StartGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, started.Status, again.Status)
	assert.Equal(t, started.IsRunning, again.IsRunning)

	stopped, err := c.StopGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stopped.Status)
	assert.False(t, stopped.IsRunning)

	stoppedAgain, err := c.StopGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stoppedAgain.Status)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LifecycleTransitions.WithLabelValues("grid", "online")))
}

func TestGridNotFound(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	_, err := c.StartGrid(ctx, 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = c.StopGrid(ctx, 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = c.RestartGrid(ctx, 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestRestartGrid(t *testing.T) {
	c, store, _ := newTestController(t)
	g := createGrid(t, store)

	restarted, err := c.RestartGrid(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, restarted.Status)
	assert.True(t, restarted.IsRunning)
}

func TestRestartGrid_CancelledLeavesGridStopped(t *testing.T) {
	c, store, _ := newTestController(t)
	c.gridRestartDelay = time.Hour
	g := createGrid(t, store)
	_, err := c.StartGrid(context.Background(), g.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.RestartGrid(ctx, g.ID)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := store.GetGrid(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, got.Status)
}

func TestRegionStartStop(t *testing.T) {
	c, store, _ := newTestController(t)
	ctx := context.Background()
	r := createRegion(t, store, 1)

	for i := 0; i < 2; i++ {
		started, err := c.StartRegion(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOnline, started.Status)
		assert.True(t, started.IsRunning)
	}

	for i := 0; i < 2; i++ {
		stopped, err := c.StopRegion(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOffline, stopped.Status)
		assert.False(t, stopped.IsRunning)
	}

	_, err := c.StartRegion(ctx, 999)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestRestartRegion_TwoPhase(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, store, m := newTestController(t)
	ctx := context.Background()
	r := createRegion(t, store, 1)
	_, err := c.StartRegion(ctx, r.ID)
	require.NoError(t, err)

	restart, err := c.RestartRegion(ctx, r.ID)
	require.NoError(t, err)

	mid, err := store.GetRegion(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRestarting, mid.Status)
	assert.False(t, mid.IsRunning)

	waitDone(t, restart)
	require.NoError(t, restart.Err())

	final, err := store.GetRegion(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, final.Status)
	assert.True(t, final.IsRunning)

	c.Wait()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RestartsPending))
}

func TestRestartRegion_SurvivesRequestCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, store, _ := newTestController(t)
	r := createRegion(t, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	restart, err := c.RestartRegion(ctx, r.ID)
	require.NoError(t, err)
	cancel()

	waitDone(t, restart)
	got, err := store.GetRegion(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, got.Status)
	c.Wait()
}

func TestRestartRegion_DeletedMidRestart(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, store, _ := newTestController(t)
	ctx := context.Background()
	r := createRegion(t, store, 1)

	restart, err := c.RestartRegion(ctx, r.ID)
	require.NoError(t, err)
	require.NoError(t, store.DeleteRegion(ctx, r.ID))

	waitDone(t, restart)
	assert.NoError(t, restart.Err(), "a vanished region is not a failure")

	_, err = store.GetRegion(ctx, r.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "completion must not recreate the region")
	c.Wait()
}

func TestRestartRegion_NotFound(t *testing.T) {
	c, _, m := newTestController(t)

	restart, err := c.RestartRegion(context.Background(), 12)
	assert.Nil(t, restart)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RestartsPending))
}

func TestWait_CoversConcurrentRestarts(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, store, _ := newTestController(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, createRegion(t, store, 1).ID)
	}
	for _, id := range ids {
		_, err := c.RestartRegion(ctx, id)
		require.NoError(t, err)
	}

	c.Wait()

	for _, id := range ids {
		got, err := store.GetRegion(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOnline, got.Status)
	}
}
