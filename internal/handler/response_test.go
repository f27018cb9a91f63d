package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sakif/grid-manager/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation with field errors",
			err:        apperror.Invalid([]apperror.FieldError{{Field: "name", Message: "name is required"}}),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Validation failed","errors":[{"field":"name","message":"name is required"}]}`,
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("loading: %w", apperror.NotFound("grid", 3)),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"message":"grid not found with id 3"}`,
		},
		{
			name:       "unauthorized",
			err:        apperror.Unauthorized("Invalid username or password"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Invalid username or password"}`,
		},
		{
			name:       "forbidden",
			err:        apperror.Forbidden("Admin access required"),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"message":"Admin access required"}`,
		},
		{
			name:       "conflict",
			err:        &apperror.AppError{Err: apperror.ErrConflict, Message: "no free region port", Field: "port"},
			wantStatus: http.StatusConflict,
			wantBody:   `{"message":"no free region port"}`,
		},
		{
			name:       "unknown error is hidden",
			err:        errors.New("sql: database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base{logger: zap.NewNop()}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/grids/3", nil)

			b.writeError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestWriteError_LogsInternalErrors(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	b := base{logger: zap.New(core)}

	rec := httptest.NewRecorder()
	b.writeError(rec, httptest.NewRequest(http.MethodPost, "/api/grids", nil), errors.New("disk full"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request failed", entry.Message)
	assert.Equal(t, "disk full", entry.ContextMap()["error"])
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "7", want: 7},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			id, err := idParam(req, "grid")
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
