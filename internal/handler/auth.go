package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/auth"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/service"
)

// AuthHandler manages registration, login and the session cookie.
//
// Sessions are stateless JWTs, so logout only clears the cookie; the token
// itself stays valid until it expires.
type AuthHandler struct {
	base
	users        *service.UserService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(users *service.UserService, sessionTTL time.Duration, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base:         base{logger: logger},
		users:        users,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
	}
}

// HandleRegister: POST /api/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.UserRegistration
	if err := decode(r, &reg); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.sessionTTL, h.secureCookie)
	h.writeJSON(w, http.StatusCreated, res.User)
}

// HandleLogin: POST /api/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.sessionTTL, h.secureCookie)
	h.writeJSON(w, http.StatusOK, res.User)
}

// HandleLogout: POST /api/logout. Always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// HandleMe: GET /api/user. Runs behind RequireAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperror.Unauthorized("Not authenticated"))
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}
