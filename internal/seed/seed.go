// Package seed loads initial data into a store. Nothing here runs
// implicitly: the server calls these functions once at startup, and tests
// call them when they want demo data.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
)

// Hasher turns a plaintext password into the stored form.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

func ptr[T any](v T) *T { return &v }

// Sample inserts one demo grid with four regions laid out as a 2x2 block.
// It does nothing when the store already holds a grid, so it is safe to
// call on every start of a persistent store.
func Sample(ctx context.Context, store repository.Storage, logger *zap.Logger) error {
	grids, err := store.GetAllGrids(ctx)
	if err != nil {
		return fmt.Errorf("seed: listing grids: %w", err)
	}
	if len(grids) > 0 {
		logger.Debug("store already has grids, skipping sample data", zap.Int("grids", len(grids)))
		return nil
	}

	grid, err := store.CreateGrid(ctx, model.InsertGrid{
		Name:            "OpenSim Grid",
		Nickname:        "opensim",
		AdminEmail:      "admin@example.com",
		ExternalAddress: "localhost",
		Status:          ptr(model.StatusOnline),
		IsRunning:       ptr(true),
	})
	if err != nil {
		return fmt.Errorf("seed: creating sample grid: %w", err)
	}

	regions := []model.InsertRegion{
		{Name: "Welcome Island", PositionX: 1000, PositionY: 1000, Port: ptr(9000), Template: ptr(model.TemplateWelcome), Status: ptr(model.StatusOnline), IsRunning: ptr(true)},
		{Name: "Sandbox", PositionX: 1001, PositionY: 1000, Port: ptr(9001), Template: ptr(model.TemplateSandbox), Status: ptr(model.StatusOnline), IsRunning: ptr(true)},
		{Name: "Ocean View", PositionX: 1000, PositionY: 1001, Port: ptr(9002), Template: ptr(model.TemplateWater)},
		{Name: "Mountain Pass", PositionX: 1001, PositionY: 1001, Port: ptr(9003), Template: ptr(model.TemplateMountains)},
	}
	for _, in := range regions {
		in.GridID = grid.ID
		if _, err := store.CreateRegion(ctx, in); err != nil {
			return fmt.Errorf("seed: creating sample region %q: %w", in.Name, err)
		}
	}

	logger.Info("loaded sample data",
		zap.Int64("gridId", grid.ID),
		zap.Int("regions", len(regions)),
	)
	return nil
}

// Admin creates an administrator account unless the username is taken.
func Admin(ctx context.Context, store repository.UserRepository, hasher Hasher, username, password, email string, logger *zap.Logger) error {
	_, err := store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("seed: looking up admin %q: %w", username, err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("seed: hashing admin password: %w", err)
	}

	u, err := store.CreateUser(ctx, model.InsertUser{
		Username: username,
		Password: hash,
		Email:    email,
		IsAdmin:  ptr(true),
	})
	if err != nil {
		return fmt.Errorf("seed: creating admin %q: %w", username, err)
	}

	logger.Info("created admin account", zap.Int64("userId", u.ID), zap.String("username", username))
	return nil
}
