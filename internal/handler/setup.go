package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// SetupHandler serves POST /api/setup.
type SetupHandler struct {
	base
	setup *service.SetupService
}

func NewSetupHandler(setup *service.SetupService, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{base: base{logger: logger}, setup: setup}
}

// SetupFailure is the 500 body when setup stopped after creating the grid.
// Nothing is rolled back, so the client learns which grid now exists.
type SetupFailure struct {
	Message string        `json:"message"`
	Grid    *model.Grid   `json:"grid"`
	Region  *model.Region `json:"region"`
}

func (h *SetupHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	var in model.InsertGrid
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.setup.SetupNewGrid(r.Context(), in)
	if err == nil {
		h.writeJSON(w, http.StatusCreated, res)
		return
	}

	if res == nil || res.Grid == nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Error("grid setup incomplete",
		zap.Int64("gridId", res.Grid.ID),
		zap.Error(err),
	)
	h.writeJSON(w, http.StatusInternalServerError, SetupFailure{
		Message: "Grid setup incomplete",
		Grid:    res.Grid,
		Region:  res.Region,
	})
}
