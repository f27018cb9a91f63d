package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// SettingHandler serves /api/settings and the login page customization.
type SettingHandler struct {
	base
	settings *service.SettingService
}

func NewSettingHandler(settings *service.SettingService, logger *zap.Logger) *SettingHandler {
	return &SettingHandler{base: base{logger: logger}, settings: settings}
}

type settingValue struct {
	Value string `json:"value"`
}

// HandleList: GET /api/settings
func (h *SettingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

// HandleGet: GET /api/settings/{key}
func (h *SettingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

// HandlePut: PUT /api/settings/{key} with body {"value": "..."}
func (h *SettingHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var body settingValue
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := h.settings.Put(r.Context(), chi.URLParam(r, "key"), body.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

// HandleDelete: DELETE /api/settings/{key}
func (h *SettingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetLoginCustomization: GET /api/login-customization. Public, the
// login page needs it before anyone is signed in.
func (h *SettingHandler) HandleGetLoginCustomization(w http.ResponseWriter, r *http.Request) {
	lc, err := h.settings.GetLoginCustomization(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lc)
}

// HandlePutLoginCustomization: PUT /api/login-customization
func (h *SettingHandler) HandlePutLoginCustomization(w http.ResponseWriter, r *http.Request) {
	var lc model.LoginCustomization
	if err := decode(r, &lc); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := h.settings.UpdateLoginCustomization(r.Context(), lc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}
