package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// contextKey is unexported so no other package can read or shadow the
// values stored by this one.
type contextKey string

const userKey contextKey = "user"

// UserLookup loads the account a session token points at.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// SetSessionCookie stores token in an HttpOnly cookie that expires with it.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth rejects requests without a valid session with 401 and puts
// the session's user in the request context otherwise. A token whose user
// no longer exists counts as no session.
//
// GUARD ORDER:
// The role guards in this file only read the user RequireAuth stored, so
// they are mounted inside a group that already uses it:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.RequireAuth(tokens, store))   // 401 without a session
//	    r.Get("/grids", ...)                       // any signed-in user
//	    r.Group(func(r chi.Router) {
//	        r.Use(auth.RequireAdmin)              // 403 for non-admins
//	        r.Post("/grids", ...)
//	    })
//	})
//
// Run on their own, RequireAdmin and RequireSelfOrAdmin answer 401, the
// same as a missing session.
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					writeMessage(w, http.StatusUnauthorized, "Not authenticated")
					return
				}
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after RequireAuth. Non-admin users get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !user.IsAdmin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSelfOrAdmin must run after RequireAuth. It guards routes that act
// on one account, named by the URL parameter param: admins pass for any id,
// other users only for their own. An id that is not a number is left for
// the handler to reject, so a malformed path still gets the usual 404.
func RequireSelfOrAdmin(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err == nil && id != user.ID && !user.IsAdmin {
				writeMessage(w, http.StatusForbidden, "You can only manage your own avatars")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
