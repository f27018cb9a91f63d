// Package service holds the business rules between the HTTP handlers and
// storage: validation, defaults that depend on other records, and the
// orchestration of multi-step operations.
//
// Services never see HTTP. They return apperror kinds and the handler layer
// maps those to status codes.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/lifecycle"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/schema"
)

// GridService manages grids and their lifecycle.
type GridService struct {
	grids     repository.GridRepository
	regions   repository.RegionRepository
	lifecycle *lifecycle.Controller
	logger    *zap.Logger
}

func NewGridService(
	grids repository.GridRepository,
	regions repository.RegionRepository,
	lc *lifecycle.Controller,
	logger *zap.Logger,
) *GridService {
	return &GridService{
		grids:     grids,
		regions:   regions,
		lifecycle: lc,
		logger:    logger,
	}
}

func (s *GridService) List(ctx context.Context) ([]model.Grid, error) {
	return s.grids.GetAllGrids(ctx)
}

func (s *GridService) Get(ctx context.Context, id int64) (*model.Grid, error) {
	return s.grids.GetGrid(ctx, id)
}

func (s *GridService) Create(ctx context.Context, in model.InsertGrid) (*model.Grid, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.AdminEmail = strings.TrimSpace(in.AdminEmail)
	in.ExternalAddress = strings.TrimSpace(in.ExternalAddress)

	if err := schema.Validate(in); err != nil {
		return nil, err
	}

	g, err := s.grids.CreateGrid(ctx, in)
	if err != nil {
		s.logger.Error("failed to create grid", zap.String("name", in.Name), zap.Error(err))
		return nil, fmt.Errorf("creating grid: %w", err)
	}

	s.logger.Info("grid created", zap.Int64("gridId", g.ID), zap.String("name", g.Name))
	return g, nil
}

func (s *GridService) Update(ctx context.Context, id int64, patch model.GridPatch) (*model.Grid, error) {
	if err := schema.Validate(patch); err != nil {
		return nil, err
	}
	return s.grids.UpdateGrid(ctx, id, patch)
}

// Delete removes the grid only. Its regions stay and keep the old gridId.
func (s *GridService) Delete(ctx context.Context, id int64) error {
	if err := s.grids.DeleteGrid(ctx, id); err != nil {
		return err
	}
	s.logger.Info("grid deleted", zap.Int64("gridId", id))
	return nil
}

func (s *GridService) Start(ctx context.Context, id int64) (*model.Grid, error) {
	return s.lifecycle.StartGrid(ctx, id)
}

func (s *GridService) Stop(ctx context.Context, id int64) (*model.Grid, error) {
	return s.lifecycle.StopGrid(ctx, id)
}

func (s *GridService) Restart(ctx context.Context, id int64) (*model.Grid, error) {
	return s.lifecycle.RestartGrid(ctx, id)
}

// Regions lists the regions of an existing grid.
func (s *GridService) Regions(ctx context.Context, gridID int64) ([]model.Region, error) {
	if _, err := s.grids.GetGrid(ctx, gridID); err != nil {
		return nil, err
	}
	return s.regions.GetRegionsByGrid(ctx, gridID)
}
