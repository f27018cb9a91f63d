// Package storetest holds the behaviour every repository.Storage
// implementation must show. Each backend's tests call Run with a factory
// that returns a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
)

// Factory returns an empty store. It should register cleanup with t.
type Factory func(t *testing.T) repository.Storage

func ptr[T any](v T) *T { return &v }

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Storage)
	}{
		{"GridDefaults", testGridDefaults},
		{"GridPatchMerges", testGridPatchMerges},
		{"RunningGridMustBeOnline", testRunningGridMustBeOnline},
		{"GridNotFound", testGridNotFound},
		{"IDsAreNeverReused", testIDsAreNeverReused},
		{"DeleteGridKeepsRegions", testDeleteGridKeepsRegions},
		{"RegionDefaults", testRegionDefaults},
		{"RegionsByGrid", testRegionsByGrid},
		{"RegionPatchMerges", testRegionPatchMerges},
		{"RegionNotFound", testRegionNotFound},
		{"UserDefaults", testUserDefaults},
		{"UserLookups", testUserLookups},
		{"DuplicateUsername", testDuplicateUsername},
		{"ConcurrentDuplicateUsername", testConcurrentDuplicateUsername},
		{"Avatars", testAvatars},
		{"SettingsCRUD", testSettingsCRUD},
		{"UpsertSetting", testUpsertSetting},
		{"ConcurrentCreates", testConcurrentCreates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "want ErrNotFound, got %v", err)
}

func createGrid(t *testing.T, s repository.Storage, name string) *model.Grid {
	t.Helper()
	g, err := s.CreateGrid(context.Background(), model.InsertGrid{
		Name:            name,
		Nickname:        name,
		AdminEmail:      "admin@example.com",
		ExternalAddress: "localhost",
	})
	require.NoError(t, err)
	return g
}

func createRegion(t *testing.T, s repository.Storage, gridID int64, name string, port int) *model.Region {
	t.Helper()
	r, err := s.CreateRegion(context.Background(), model.InsertRegion{
		GridID:    gridID,
		Name:      name,
		PositionX: 1000,
		PositionY: 1000,
		Port:      ptr(port),
	})
	require.NoError(t, err)
	return r
}

func testGridDefaults(t *testing.T, s repository.Storage) {
	g := createGrid(t, s, "Main")

	assert.Equal(t, int64(1), g.ID)
	assert.Equal(t, model.StatusOffline, g.Status)
	assert.Equal(t, model.DefaultGridPort, g.Port)
	assert.Equal(t, model.DefaultGridExternalPort, g.ExternalPort)
	assert.False(t, g.IsRunning)
	require.NotNil(t, g.LastStarted)

	got, err := s.GetGrid(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, got.Name)
	assert.Equal(t, g.Status, got.Status)
	assert.WithinDuration(t, *g.LastStarted, *got.LastStarted, time.Second)
}

func testGridPatchMerges(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	g := createGrid(t, s, "Main")

	patch := model.GridPatch{Status: ptr(model.StatusOnline), IsRunning: ptr(true)}
	updated, err := s.UpdateGrid(ctx, g.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOnline, updated.Status)
	assert.True(t, updated.IsRunning)
	assert.Equal(t, "Main", updated.Name, "unpatched fields keep their value")
	assert.Equal(t, g.Port, updated.Port)

	again, err := s.UpdateGrid(ctx, g.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, updated.Status, again.Status)
	assert.Equal(t, updated.IsRunning, again.IsRunning)

	unchanged, err := s.UpdateGrid(ctx, g.ID, model.GridPatch{})
	require.NoError(t, err)
	assert.Equal(t, again.Name, unchanged.Name)
	assert.Equal(t, again.Status, unchanged.Status)
}

func testRunningGridMustBeOnline(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	_, err := s.CreateGrid(ctx, model.InsertGrid{Name: "Ghost", IsRunning: ptr(true)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "want ErrValidation, got %v", err)

	all, err := s.GetAllGrids(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected grid must not be stored")

	g := createGrid(t, s, "Main")
	_, err = s.UpdateGrid(ctx, g.ID, model.GridPatch{IsRunning: ptr(true)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "want ErrValidation, got %v", err)

	running, err := s.UpdateGrid(ctx, g.ID, model.GridPatch{Status: ptr(model.StatusOnline), IsRunning: ptr(true)})
	require.NoError(t, err)
	require.True(t, running.IsRunning)

	var appErr *apperror.AppError
	_, err = s.UpdateGrid(ctx, g.ID, model.GridPatch{Status: ptr(model.StatusOffline)})
	require.True(t, errors.As(err, &appErr), "want AppError, got %v", err)
	assert.Equal(t, "isRunning", appErr.Field)

	stored, err := s.GetGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, stored.Status, "rejected patch must not be written")
	assert.True(t, stored.IsRunning)

	stopped, err := s.UpdateGrid(ctx, g.ID, model.GridPatch{Status: ptr(model.StatusOffline), IsRunning: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, stopped.Status)
}

func testGridNotFound(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	_, err := s.GetGrid(ctx, 99)
	requireNotFound(t, err)

	_, err = s.UpdateGrid(ctx, 99, model.GridPatch{Name: ptr("x")})
	requireNotFound(t, err)

	requireNotFound(t, s.DeleteGrid(ctx, 99))
}

func testIDsAreNeverReused(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	first := createGrid(t, s, "A")
	second := createGrid(t, s, "B")
	assert.Greater(t, second.ID, first.ID)

	require.NoError(t, s.DeleteGrid(ctx, second.ID))
	third := createGrid(t, s, "C")
	assert.Greater(t, third.ID, second.ID)

	_, err := s.GetGrid(ctx, second.ID)
	requireNotFound(t, err)
}

func testDeleteGridKeepsRegions(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	g := createGrid(t, s, "Main")
	r := createRegion(t, s, g.ID, "Island", 9000)

	require.NoError(t, s.DeleteGrid(ctx, g.ID))

	got, err := s.GetRegion(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.GridID)
}

func testRegionDefaults(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	r, err := s.CreateRegion(ctx, model.InsertRegion{GridID: 1, Name: "Plain"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusOffline, r.Status)
	assert.Equal(t, model.DefaultRegionSize, r.SizeX)
	assert.Equal(t, model.DefaultRegionSize, r.SizeY)
	assert.Equal(t, model.TemplateEmpty, r.Template)
	assert.False(t, r.IsRunning)
	assert.False(t, r.IsPendingSetup)
	assert.Nil(t, r.OwnerID)

	owned, err := s.CreateRegion(ctx, model.InsertRegion{
		GridID:   1,
		Name:     "Owned",
		OwnerID:  ptr(int64(5)),
		Template: ptr(model.TemplateWater),
	})
	require.NoError(t, err)
	got, err := s.GetRegion(ctx, owned.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, int64(5), *got.OwnerID)
	assert.Equal(t, model.TemplateWater, got.Template)
}

func testRegionsByGrid(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	createRegion(t, s, 1, "A", 9000)
	createRegion(t, s, 2, "B", 9000)
	createRegion(t, s, 1, "C", 9001)

	regions, err := s.GetRegionsByGrid(ctx, 1)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "A", regions[0].Name)
	assert.Equal(t, "C", regions[1].Name)

	none, err := s.GetRegionsByGrid(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.GetAllRegions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testRegionPatchMerges(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	r := createRegion(t, s, 1, "Island", 9000)

	updated, err := s.UpdateRegion(ctx, r.ID, model.RegionPatch{
		Status:    ptr(model.StatusRestarting),
		IsRunning: ptr(false),
		OwnerID:   ptr(int64(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRestarting, updated.Status)
	assert.Equal(t, 9000, updated.Port)
	assert.Equal(t, "Island", updated.Name)
	require.NotNil(t, updated.OwnerID)
	assert.Equal(t, int64(3), *updated.OwnerID)
}

func testRegionNotFound(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	_, err := s.GetRegion(ctx, 7)
	requireNotFound(t, err)

	_, err = s.UpdateRegion(ctx, 7, model.RegionPatch{Status: ptr(model.StatusOnline)})
	requireNotFound(t, err)

	requireNotFound(t, s.DeleteRegion(ctx, 7))
}

func testUserDefaults(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	u, err := s.CreateUser(ctx, model.InsertUser{
		Username: "alice",
		Password: "$2a$04$hash",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)

	assert.False(t, u.IsAdmin)
	assert.Nil(t, u.FirstName)
	assert.Nil(t, u.LastName)
	assert.False(t, u.DateJoined.IsZero())

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)

	_, err = s.GetUser(ctx, u.ID+100)
	requireNotFound(t, err)
}

func testUserLookups(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	_, err := s.CreateUser(ctx, model.InsertUser{
		Username:  "bob",
		Password:  "hash",
		Email:     "bob@example.com",
		IsAdmin:   ptr(true),
		FirstName: ptr("Bob"),
	})
	require.NoError(t, err)

	byName, err := s.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, byName.IsAdmin)
	require.NotNil(t, byName.FirstName)
	assert.Equal(t, "Bob", *byName.FirstName)

	byEmail, err := s.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)

	_, err = s.GetUserByUsername(ctx, "carol")
	requireNotFound(t, err)
	_, err = s.GetUserByEmail(ctx, "carol@example.com")
	requireNotFound(t, err)

	all, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testDuplicateUsername(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	in := model.InsertUser{Username: "dana", Password: "hash", Email: "dana@example.com"}

	_, err := s.CreateUser(ctx, in)
	require.NoError(t, err)

	in.Email = "other@example.com"
	_, err = s.CreateUser(ctx, in)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "want AppError, got %v", err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "username", appErr.Field)

	all, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testConcurrentDuplicateUsername(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	const n = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.CreateUser(ctx, model.InsertUser{Username: "same", Password: "hash", Email: "same@example.com"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)

	all, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testAvatars(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	a, err := s.CreateAvatar(ctx, model.InsertAvatar{UserID: 1, AvatarType: "default", Name: "Ava"})
	require.NoError(t, err)
	assert.False(t, a.Created.IsZero())

	_, err = s.CreateAvatar(ctx, model.InsertAvatar{UserID: 2, AvatarType: "default", Name: "Other"})
	require.NoError(t, err)

	mine, err := s.GetAvatarsByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ava", mine[0].Name)

	got, err := s.GetAvatar(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)

	_, err = s.GetAvatar(ctx, 999)
	requireNotFound(t, err)
}

func testSettingsCRUD(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	created, err := s.CreateSetting(ctx, model.InsertSetting{Key: "theme", Value: `"dark"`})
	require.NoError(t, err)
	assert.Equal(t, "theme", created.Key)

	_, err = s.CreateSetting(ctx, model.InsertSetting{Key: "theme", Value: `"light"`})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	updated, err := s.UpdateSetting(ctx, "theme", `"light"`)
	require.NoError(t, err)
	assert.Equal(t, `"light"`, updated.Value)
	assert.Equal(t, created.ID, updated.ID)

	_, err = s.UpdateSetting(ctx, "missing", "x")
	requireNotFound(t, err)

	all, err := s.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteSetting(ctx, "theme"))
	_, err = s.GetSetting(ctx, "theme")
	requireNotFound(t, err)
	requireNotFound(t, s.DeleteSetting(ctx, "theme"))
}

func testUpsertSetting(t *testing.T, s repository.Storage) {
	ctx := context.Background()

	first, err := s.UpsertSetting(ctx, model.LoginCustomizationKey, `{"displayType":"text"}`)
	require.NoError(t, err)

	second, err := s.UpsertSetting(ctx, model.LoginCustomizationKey, `{"displayType":"image"}`)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, `{"displayType":"image"}`, second.Value)

	all, err := s.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testConcurrentCreates(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.CreateRegion(ctx, model.InsertRegion{GridID: 1, Name: "r"})
			if assert.NoError(t, err) {
				ids <- r.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
