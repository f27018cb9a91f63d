// Package lifecycle drives the simulated start/stop/restart state machine of
// grids and regions.
//
// No processes are launched: a transition is a status update in storage.
// The only asynchronous piece is the completion step of a region restart,
// which runs on its own goroutine after a delay and is tracked so shutdown
// can wait for it.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/metrics"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
)

// Delays used when Options leaves them zero.
const (
	DefaultRegionRestartDelay = 3 * time.Second
	DefaultGridRestartDelay   = time.Second
)

// Store is the part of storage the controller touches.
type Store interface {
	repository.GridRepository
	repository.RegionRepository
}

type Options struct {
	Store   Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	RegionRestartDelay time.Duration
	GridRestartDelay   time.Duration
}

// Controller performs lifecycle transitions. It is safe for concurrent use.
type Controller struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	regionRestartDelay time.Duration
	gridRestartDelay   time.Duration

	pending sync.WaitGroup
}

func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("nil Store is invalid")
	}
	if opts.Logger == nil {
		return nil, errors.New("nil Logger is invalid")
	}
	if opts.Metrics == nil {
		return nil, errors.New("nil Metrics is invalid")
	}
	if opts.RegionRestartDelay <= 0 {
		opts.RegionRestartDelay = DefaultRegionRestartDelay
	}
	if opts.GridRestartDelay <= 0 {
		opts.GridRestartDelay = DefaultGridRestartDelay
	}

	return &Controller{
		store:              opts.Store,
		logger:             opts.Logger,
		metrics:            opts.Metrics,
		now:                time.Now,
		regionRestartDelay: opts.RegionRestartDelay,
		gridRestartDelay:   opts.GridRestartDelay,
	}, nil
}

func ptr[T any](v T) *T { return &v }

// StartGrid marks the grid online and running and stamps lastStarted.
// Starting a running grid refreshes lastStarted and is otherwise a no-op.
func (c *Controller) StartGrid(ctx context.Context, id int64) (*model.Grid, error) {
	g, err := c.store.UpdateGrid(ctx, id, model.GridPatch{
		Status:      ptr(model.StatusOnline),
		IsRunning:   ptr(true),
		LastStarted: ptr(c.now()),
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Transition("grid", string(model.StatusOnline))
	c.logger.Info("grid started", zap.Int64("gridId", id))
	return g, nil
}

// StopGrid marks the grid offline. Stopping a stopped grid is a no-op.
func (c *Controller) StopGrid(ctx context.Context, id int64) (*model.Grid, error) {
	g, err := c.store.UpdateGrid(ctx, id, model.GridPatch{
		Status:    ptr(model.StatusOffline),
		IsRunning: ptr(false),
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Transition("grid", string(model.StatusOffline))
	c.logger.Info("grid stopped", zap.Int64("gridId", id))
	return g, nil
}

// RestartGrid stops the grid, waits the grid restart delay and starts it
// again. The steps are not atomic: if ctx ends during the wait the grid is
// left stopped.
func (c *Controller) RestartGrid(ctx context.Context, id int64) (*model.Grid, error) {
	if _, err := c.StopGrid(ctx, id); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.gridRestartDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return c.StartGrid(ctx, id)
}

// StartRegion marks the region online and running.
func (c *Controller) StartRegion(ctx context.Context, id int64) (*model.Region, error) {
	r, err := c.store.UpdateRegion(ctx, id, model.RegionPatch{
		Status:    ptr(model.StatusOnline),
		IsRunning: ptr(true),
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Transition("region", string(model.StatusOnline))
	c.logger.Info("region started", zap.Int64("regionId", id))
	return r, nil
}

// StopRegion marks the region offline.
func (c *Controller) StopRegion(ctx context.Context, id int64) (*model.Region, error) {
	r, err := c.store.UpdateRegion(ctx, id, model.RegionPatch{
		Status:    ptr(model.StatusOffline),
		IsRunning: ptr(false),
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Transition("region", string(model.StatusOffline))
	c.logger.Info("region stopped", zap.Int64("regionId", id))
	return r, nil
}

// Restart tracks the completion step of one region restart.
type Restart struct {
	RegionID int64

	done chan struct{}
	err  error
}

// Done is closed once the region has been brought back online, or the
// completion step found it gone or failed.
func (r *Restart) Done() <-chan struct{} { return r.done }

// Err reports a storage failure of the completion step. A region deleted
// while restarting is not a failure. Only meaningful after Done is closed.
func (r *Restart) Err() error {
	<-r.done
	return r.err
}

// RestartRegion moves the region to restarting right away and schedules
// its return to online after the region restart delay. It returns as soon
// as the first step is stored.
//
// The completion step is detached from ctx: a finished or cancelled request
// does not cancel it. Restarting a region that is already restarting
// schedules another completion; the end state is the same.
func (c *Controller) RestartRegion(ctx context.Context, id int64) (*Restart, error) {
	_, err := c.store.UpdateRegion(ctx, id, model.RegionPatch{
		Status:    ptr(model.StatusRestarting),
		IsRunning: ptr(false),
	})
	if err != nil {
		return nil, err
	}
	c.metrics.Transition("region", string(model.StatusRestarting))
	c.logger.Info("region restarting",
		zap.Int64("regionId", id),
		zap.Duration("delay", c.regionRestartDelay),
	)

	restart := &Restart{RegionID: id, done: make(chan struct{})}
	detached := context.WithoutCancel(ctx)

	c.pending.Add(1)
	c.metrics.RestartsPending.Inc()
	go func() {
		defer c.pending.Done()
		defer close(restart.done)
		defer c.metrics.RestartsPending.Dec()

		time.Sleep(c.regionRestartDelay)
		restart.err = c.completeRestart(detached, id)
	}()

	return restart, nil
}

func (c *Controller) completeRestart(ctx context.Context, id int64) error {
	_, err := c.store.UpdateRegion(ctx, id, model.RegionPatch{
		Status:    ptr(model.StatusOnline),
		IsRunning: ptr(true),
	})
	switch {
	case err == nil:
		c.metrics.Transition("region", string(model.StatusOnline))
		c.logger.Info("region restart complete", zap.Int64("regionId", id))
		return nil
	case errors.Is(err, apperror.ErrNotFound):
		c.logger.Debug("region removed during restart", zap.Int64("regionId", id))
		return nil
	default:
		c.logger.Error("region restart completion failed",
			zap.Int64("regionId", id),
			zap.Error(err),
		)
		return err
	}
}

// Wait blocks until every scheduled restart completion has run.
func (c *Controller) Wait() {
	c.pending.Wait()
}
