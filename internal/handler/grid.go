package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// GridHandler serves /api/grids.
type GridHandler struct {
	base
	grids   *service.GridService
	regions *service.RegionService
}

func NewGridHandler(grids *service.GridService, regions *service.RegionService, logger *zap.Logger) *GridHandler {
	return &GridHandler{base: base{logger: logger}, grids: grids, regions: regions}
}

// HandleList: GET /api/grids
func (h *GridHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	grids, err := h.grids.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, grids)
}

// HandleGet: GET /api/grids/{id}
func (h *GridHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.grids.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

// HandleCreate: POST /api/grids
func (h *GridHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.InsertGrid
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.grids.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, g)
}

// HandleUpdate: PATCH /api/grids/{id}
func (h *GridHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch model.GridPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h.grids.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

// HandleDelete: DELETE /api/grids/{id}
func (h *GridHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.grids.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStart: POST /api/grids/{id}/start
func (h *GridHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.grids.Start)
}

// HandleStop: POST /api/grids/{id}/stop
func (h *GridHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.grids.Stop)
}

// HandleRestart: POST /api/grids/{id}/restart. Responds once the grid is
// back online.
func (h *GridHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.grids.Restart)
}

// HandleRegions: GET /api/grids/{id}/regions
func (h *GridHandler) HandleRegions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	regions, err := h.grids.Regions(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, regions)
}

// HandleNextPort: GET /api/grids/{id}/next-port
func (h *GridHandler) HandleNextPort(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	port, err := h.regions.NextFreePort(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"port": port})
}

func (h *GridHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64) (*model.Grid, error),
) {
	id, err := idParam(r, "grid")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := op(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}
