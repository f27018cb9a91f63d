package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

func TestGridService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validGrid()
	in.Name = "  Padded  "
	g, err := f.grids.Create(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "Padded", g.Name)
	assert.Equal(t, model.StatusOffline, g.Status)
	assert.Equal(t, model.DefaultGridPort, g.Port)
	assert.Equal(t, model.DefaultGridExternalPort, g.ExternalPort)
	assert.False(t, g.IsRunning)
}

func TestGridService_CreateRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	in := validGrid()
	in.Name = "   "
	in.AdminEmail = "not-an-email"

	_, err := f.grids.Create(context.Background(), in)
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	fields := map[string]bool{}
	for _, fe := range appErr.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["adminEmail"])

	grids, err := f.grids.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, grids)
}

func TestGridService_UpdateValidatesPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.grids.Create(ctx, validGrid())
	require.NoError(t, err)

	_, err = f.grids.Update(ctx, g.ID, model.GridPatch{AdminEmail: ptr("nope")})
	require.ErrorIs(t, err, apperror.ErrValidation)

	updated, err := f.grids.Update(ctx, g.ID, model.GridPatch{Nickname: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Nickname)
	assert.Equal(t, g.Name, updated.Name)
}

func TestGridService_RunningRequiresOnline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validGrid()
	in.IsRunning = ptr(true)
	_, err := f.grids.Create(ctx, in)
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "isRunning", appErr.Errors[0].Field)

	in.Status = ptr(model.StatusOnline)
	g, err := f.grids.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, g.IsRunning)

	_, err = f.grids.Update(ctx, g.ID, model.GridPatch{Status: ptr(model.StatusOffline)})
	require.ErrorIs(t, err, apperror.ErrValidation)

	stored, err := f.grids.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, stored.Status)
	assert.True(t, stored.IsRunning)

	stopped, err := f.grids.Stop(ctx, g.ID)
	require.NoError(t, err)
	_, err = f.grids.Update(ctx, stopped.ID, model.GridPatch{IsRunning: ptr(true)})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGridService_StartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.grids.Create(ctx, validGrid())
	require.NoError(t, err)

	started, err := f.grids.Start(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, started.Status)
	assert.True(t, started.IsRunning)

	again, err := f.grids.Start(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, again.Status)

	stopped, err := f.grids.Stop(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stopped.Status)
	assert.False(t, stopped.IsRunning)

	restarted, err := f.grids.Restart(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, restarted.Status)
}

func TestGridService_MissingGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.grids.Get(ctx, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.grids.Start(ctx, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.grids.Regions(ctx, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, f.grids.Delete(ctx, 42), apperror.ErrNotFound)
}

func TestGridService_DeleteKeepsRegions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.grids.Create(ctx, validGrid())
	require.NoError(t, err)
	r, err := f.regions.Create(ctx, model.InsertRegion{GridID: g.ID, Name: "Orphan"})
	require.NoError(t, err)

	require.NoError(t, f.grids.Delete(ctx, g.ID))

	still, err := f.regions.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, still.GridID)
}
