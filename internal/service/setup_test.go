package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository/memory"
)

func TestSetupNewGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.setup.SetupNewGrid(ctx, validGrid())
	require.NoError(t, err)

	require.NotNil(t, res.Grid)
	assert.Equal(t, model.StatusOnline, res.Grid.Status)
	assert.True(t, res.Grid.IsRunning)
	assert.NotNil(t, res.Grid.LastStarted)

	require.NotNil(t, res.Region)
	r := res.Region
	assert.Equal(t, WelcomeRegionName, r.Name)
	assert.Equal(t, res.Grid.ID, r.GridID)
	assert.Equal(t, 1000, r.PositionX)
	assert.Equal(t, 1000, r.PositionY)
	assert.Equal(t, 256, r.SizeX)
	assert.Equal(t, 256, r.SizeY)
	assert.Equal(t, 9000, r.Port)
	assert.Equal(t, model.TemplateWelcome, r.Template)
	assert.Equal(t, model.StatusOnline, r.Status)
	assert.True(t, r.IsRunning)
}

func TestSetupNewGrid_InvalidGridCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validGrid()
	in.Nickname = ""

	res, err := f.setup.SetupNewGrid(ctx, in)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Nil(t, res.Grid)

	grids, err := f.grids.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, grids)
}

func TestSetupNewGrid_RegionFailureKeepsGrid(t *testing.T) {
	f := newFixtureWithRegions(t, func(s *memory.Store) failingRegions {
		return failingRegions{Store: s, err: errDiskFull}
	})
	ctx := context.Background()

	res, err := f.setup.SetupNewGrid(ctx, validGrid())
	require.ErrorIs(t, err, errDiskFull)

	require.NotNil(t, res.Grid)
	assert.Nil(t, res.Region)

	stored, err := f.grids.Get(ctx, res.Grid.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, stored.Status)
	assert.True(t, stored.IsRunning)
}
