package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/lifecycle"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/schema"
)

// RegionService manages regions and their lifecycle.
type RegionService struct {
	grids     repository.GridRepository
	regions   repository.RegionRepository
	lifecycle *lifecycle.Controller
	logger    *zap.Logger
}

func NewRegionService(
	grids repository.GridRepository,
	regions repository.RegionRepository,
	lc *lifecycle.Controller,
	logger *zap.Logger,
) *RegionService {
	return &RegionService{
		grids:     grids,
		regions:   regions,
		lifecycle: lc,
		logger:    logger,
	}
}

func (s *RegionService) List(ctx context.Context) ([]model.Region, error) {
	return s.regions.GetAllRegions(ctx)
}

func (s *RegionService) Get(ctx context.Context, id int64) (*model.Region, error) {
	return s.regions.GetRegion(ctx, id)
}

// Create validates the region, checks its grid exists and, when no port is
// given, assigns the lowest free port of that grid.
func (s *RegionService) Create(ctx context.Context, in model.InsertRegion) (*model.Region, error) {
	in.Name = strings.TrimSpace(in.Name)

	if err := schema.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.grids.GetGrid(ctx, in.GridID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("gridId", fmt.Sprintf("grid %d does not exist", in.GridID))
		}
		return nil, err
	}

	if in.Port == nil {
		port, err := s.nextFreePort(ctx, in.GridID)
		if err != nil {
			return nil, err
		}
		in.Port = &port
	}

	r, err := s.regions.CreateRegion(ctx, in)
	if err != nil {
		s.logger.Error("failed to create region", zap.String("name", in.Name), zap.Error(err))
		return nil, fmt.Errorf("creating region: %w", err)
	}

	s.logger.Info("region created",
		zap.Int64("regionId", r.ID),
		zap.Int64("gridId", r.GridID),
		zap.Int("port", r.Port),
	)
	return r, nil
}

func (s *RegionService) Update(ctx context.Context, id int64, patch model.RegionPatch) (*model.Region, error) {
	if err := schema.Validate(patch); err != nil {
		return nil, err
	}
	return s.regions.UpdateRegion(ctx, id, patch)
}

func (s *RegionService) Delete(ctx context.Context, id int64) error {
	if err := s.regions.DeleteRegion(ctx, id); err != nil {
		return err
	}
	s.logger.Info("region deleted", zap.Int64("regionId", id))
	return nil
}

func (s *RegionService) Start(ctx context.Context, id int64) (*model.Region, error) {
	return s.lifecycle.StartRegion(ctx, id)
}

func (s *RegionService) Stop(ctx context.Context, id int64) (*model.Region, error) {
	return s.lifecycle.StopRegion(ctx, id)
}

// Restart returns once the region is marked restarting; the returned handle
// completes when it is back online.
func (s *RegionService) Restart(ctx context.Context, id int64) (*lifecycle.Restart, error) {
	return s.lifecycle.RestartRegion(ctx, id)
}

// NextFreePort returns the lowest port in the region port range not used by
// any region of the grid. The answer is advisory: nothing stops two callers
// from taking the same port.
func (s *RegionService) NextFreePort(ctx context.Context, gridID int64) (int, error) {
	if _, err := s.grids.GetGrid(ctx, gridID); err != nil {
		return 0, err
	}
	return s.nextFreePort(ctx, gridID)
}

func (s *RegionService) nextFreePort(ctx context.Context, gridID int64) (int, error) {
	regions, err := s.regions.GetRegionsByGrid(ctx, gridID)
	if err != nil {
		return 0, fmt.Errorf("listing regions of grid %d: %w", gridID, err)
	}

	used := make(map[int]bool, len(regions))
	for _, r := range regions {
		used[r.Port] = true
	}
	for port := model.RegionPortMin; port <= model.RegionPortMax; port++ {
		if !used[port] {
			return port, nil
		}
	}
	return 0, &apperror.AppError{
		Err:     apperror.ErrConflict,
		Message: fmt.Sprintf("no free region port between %d and %d", model.RegionPortMin, model.RegionPortMax),
		Field:   "port",
	}
}
