package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// UserHandler serves account administration and avatars under /api/users.
type UserHandler struct {
	base
	users *service.UserService
}

func NewUserHandler(users *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{base: base{logger: logger}, users: users}
}

// HandleList: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// HandleCreate: POST /api/users. Admins may create other admins.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.InsertUser
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.CreateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, u)
}

// HandleAvatars: GET /api/users/{id}/avatars
func (h *UserHandler) HandleAvatars(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "user")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	avatars, err := h.users.Avatars(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, avatars)
}

// HandleCreateAvatar: POST /api/users/{id}/avatars. The owner comes from
// the route; any userId in the body is ignored.
func (h *UserHandler) HandleCreateAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "user")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in model.InsertAvatar
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.UserID = id

	a, err := h.users.CreateAvatar(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}
