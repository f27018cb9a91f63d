package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
)

// Welcome region placed in every grid created through setup.
const (
	WelcomeRegionName = "Welcome Island"
	WelcomeRegionX    = 1000
	WelcomeRegionY    = 1000
	WelcomeRegionPort = 9000
)

// SetupResult is what SetupNewGrid managed to create. Region is nil when
// the run stopped before the region step.
type SetupResult struct {
	Grid   *model.Grid   `json:"grid"`
	Region *model.Region `json:"region"`
}

// SetupService runs the one-click "new grid" flow.
type SetupService struct {
	grids   *GridService
	regions *RegionService
	logger  *zap.Logger
}

func NewSetupService(grids *GridService, regions *RegionService, logger *zap.Logger) *SetupService {
	return &SetupService{grids: grids, regions: regions, logger: logger}
}

// SetupNewGrid creates the grid, starts it, then adds an online welcome
// region. Steps are not rolled back: on a later failure the partial result
// is returned together with the error.
func (s *SetupService) SetupNewGrid(ctx context.Context, in model.InsertGrid) (*SetupResult, error) {
	result := &SetupResult{}

	grid, err := s.grids.Create(ctx, in)
	if err != nil {
		return result, err
	}
	result.Grid = grid

	started, err := s.grids.Start(ctx, grid.ID)
	if err != nil {
		s.logger.Error("setup: starting grid failed", zap.Int64("gridId", grid.ID), zap.Error(err))
		return result, fmt.Errorf("starting grid %d: %w", grid.ID, err)
	}
	result.Grid = started

	size := model.DefaultRegionSize
	region, err := s.regions.Create(ctx, model.InsertRegion{
		GridID:    grid.ID,
		Name:      WelcomeRegionName,
		PositionX: WelcomeRegionX,
		PositionY: WelcomeRegionY,
		SizeX:     &size,
		SizeY:     &size,
		Port:      ptrTo(WelcomeRegionPort),
		Template:  ptrTo(model.TemplateWelcome),
		Status:    ptrTo(model.StatusOnline),
		IsRunning: ptrTo(true),
	})
	if err != nil {
		s.logger.Error("setup: creating welcome region failed", zap.Int64("gridId", grid.ID), zap.Error(err))
		return result, fmt.Errorf("creating welcome region for grid %d: %w", grid.ID, err)
	}
	result.Region = region

	s.logger.Info("grid setup complete",
		zap.Int64("gridId", grid.ID),
		zap.Int64("regionId", region.ID),
	)
	return result, nil
}

func ptrTo[T any](v T) *T { return &v }
