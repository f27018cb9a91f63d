// Package repository declares the storage contract the services depend on.
//
// Every lookup, update or delete of a missing id or key returns an error
// matching apperror.ErrNotFound. Create applies the model defaults and does
// not validate input shape; that is the service's job. Lists are ordered by
// ascending id. Implementations are safe for concurrent use; callers never
// lock.
//
// Two rules depend on stored state rather than on the input alone, so the
// stores enforce them atomically with the write:
//
//   - usernames are unique; CreateUser fails with apperror.ErrConflict on
//     field "username" when the name is taken, even under concurrent
//     registrations;
//   - a running grid is online; CreateGrid and UpdateGrid check the record
//     as it would be stored (after defaults or the merge) with CheckGrid and
//     fail with apperror.ErrValidation without writing anything.
package repository

import (
	"context"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

// CheckGrid reports a grid record that claims to be running while its
// status is not online.
func CheckGrid(g model.Grid) error {
	if g.IsRunning && g.Status != model.StatusOnline {
		return apperror.ValidationFailed("isRunning", "isRunning requires status online")
	}
	return nil
}

// UsernameTaken is the error CreateUser returns for a duplicate username.
func UsernameTaken(username string) error {
	return apperror.Taken("user", "username", username)
}

type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	// CreateUser expects in.Password to already hold the hash. A taken
	// username fails with apperror.ErrConflict.
	CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error)
}

type AvatarRepository interface {
	GetAvatar(ctx context.Context, id int64) (*model.Avatar, error)
	GetAvatarsByUser(ctx context.Context, userID int64) ([]model.Avatar, error)
	CreateAvatar(ctx context.Context, in model.InsertAvatar) (*model.Avatar, error)
}

type GridRepository interface {
	GetGrid(ctx context.Context, id int64) (*model.Grid, error)
	GetAllGrids(ctx context.Context) ([]model.Grid, error)
	CreateGrid(ctx context.Context, in model.InsertGrid) (*model.Grid, error)
	UpdateGrid(ctx context.Context, id int64, patch model.GridPatch) (*model.Grid, error)
	// DeleteGrid leaves the grid's regions in place.
	DeleteGrid(ctx context.Context, id int64) error
}

type RegionRepository interface {
	GetRegion(ctx context.Context, id int64) (*model.Region, error)
	GetRegionsByGrid(ctx context.Context, gridID int64) ([]model.Region, error)
	GetAllRegions(ctx context.Context) ([]model.Region, error)
	CreateRegion(ctx context.Context, in model.InsertRegion) (*model.Region, error)
	UpdateRegion(ctx context.Context, id int64, patch model.RegionPatch) (*model.Region, error)
	DeleteRegion(ctx context.Context, id int64) error
}

type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	GetAllSettings(ctx context.Context) ([]model.Setting, error)
	// CreateSetting fails with apperror.ErrConflict when the key exists.
	CreateSetting(ctx context.Context, in model.InsertSetting) (*model.Setting, error)
	UpdateSetting(ctx context.Context, key, value string) (*model.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
	// UpsertSetting creates the key or replaces its value in one step.
	UpsertSetting(ctx context.Context, key, value string) (*model.Setting, error)
}

// Storage is the full contract; both the memory and sqlite stores satisfy it.
type Storage interface {
	UserRepository
	AvatarRepository
	GridRepository
	RegionRepository
	SettingRepository
	Close() error
}
