package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// RegionHandler serves /api/regions.
type RegionHandler struct {
	base
	regions *service.RegionService
}

func NewRegionHandler(regions *service.RegionService, logger *zap.Logger) *RegionHandler {
	return &RegionHandler{base: base{logger: logger}, regions: regions}
}

// HandleList: GET /api/regions
func (h *RegionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	regions, err := h.regions.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, regions)
}

// HandleGet: GET /api/regions/{id}
func (h *RegionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "region")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.regions.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, region)
}

// HandleCreate: POST /api/regions
func (h *RegionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.InsertRegion
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.regions.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, region)
}

// HandleUpdate: PATCH /api/regions/{id}
func (h *RegionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "region")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch model.RegionPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.regions.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, region)
}

// HandleDelete: DELETE /api/regions/{id}
func (h *RegionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "region")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.regions.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStart: POST /api/regions/{id}/start
func (h *RegionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.regions.Start)
}

// HandleStop: POST /api/regions/{id}/stop
func (h *RegionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.regions.Stop)
}

// HandleRestart: POST /api/regions/{id}/restart
//
// Answers as soon as the region is marked restarting. The region comes back
// online in the background; clients poll GET /api/regions/{id} to see it.
func (h *RegionHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "region")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.regions.Restart(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Region restart initiated"})
}

func (h *RegionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64) (*model.Region, error),
) {
	id, err := idParam(r, "region")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := op(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, region)
}
