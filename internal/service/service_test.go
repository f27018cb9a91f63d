package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/auth"
	"github.com/sakif/grid-manager/internal/lifecycle"
	"github.com/sakif/grid-manager/internal/metrics"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository/memory"
)

// failingRegions wraps the memory store and fails region creation, to
// drive the partial-failure paths.
type failingRegions struct {
	*memory.Store
	err error
}

func (f failingRegions) CreateRegion(context.Context, model.InsertRegion) (*model.Region, error) {
	return nil, f.err
}

var errDiskFull = errors.New("disk full")

type fixture struct {
	store     *memory.Store
	lifecycle *lifecycle.Controller
	grids     *GridService
	regions   *RegionService
	users     *UserService
	settings  *SettingService
	setup     *SetupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRegions(t, nil)
}

// newFixtureWithRegions lets a test swap in a region repository for the
// services; the lifecycle controller always uses the plain store.
func newFixtureWithRegions(t *testing.T, wrap func(*memory.Store) failingRegions) *fixture {
	t.Helper()

	logger := zap.NewNop()
	store := memory.New()

	lc, err := lifecycle.New(lifecycle.Options{
		Store:              store,
		Logger:             logger,
		Metrics:            metrics.New(),
		RegionRestartDelay: 100 * time.Millisecond,
		GridRestartDelay:   time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(lc.Wait)

	tokens, err := auth.NewTokenService("service-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	f := &fixture{store: store, lifecycle: lc}
	f.grids = NewGridService(store, store, lc, logger)
	if wrap != nil {
		f.regions = NewRegionService(store, wrap(store), lc, logger)
	} else {
		f.regions = NewRegionService(store, store, lc, logger)
	}
	f.users = NewUserService(store, tokens, auth.NewPasswordServiceForTest(4), logger)
	f.settings = NewSettingService(store, logger)
	f.setup = NewSetupService(f.grids, f.regions, logger)
	return f
}

func validGrid() model.InsertGrid {
	return model.InsertGrid{
		Name:            "Test Grid",
		Nickname:        "test",
		AdminEmail:      "admin@example.com",
		ExternalAddress: "grid.example.com",
	}
}

func ptr[T any](v T) *T { return &v }
