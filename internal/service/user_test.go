package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

func registration() model.UserRegistration {
	return model.UserRegistration{
		Username:        "resident",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Email:           "resident@example.com",
		AvatarName:      "Resi Dent",
		AvatarType:      "default",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.users.Register(ctx, registration())
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.False(t, res.User.IsAdmin)
	assert.NotEqual(t, "hunter22", res.User.PasswordHash)

	avatars, err := f.users.Avatars(ctx, res.User.ID)
	require.NoError(t, err)
	require.Len(t, avatars, 1)
	assert.Equal(t, "Resi Dent", avatars[0].Name)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	f := newFixture(t)

	reg := registration()
	reg.ConfirmPassword = "different"

	_, err := f.users.Register(context.Background(), reg)
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "confirmPassword", appErr.Errors[0].Field)
	assert.Equal(t, "Passwords don't match", appErr.Errors[0].Message)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration())
	require.NoError(t, err)

	_, err = f.users.Register(ctx, registration())
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "username", appErr.Field)
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.users.Register(ctx, registration())

			mu.Lock()
			defer mu.Unlock()
			var appErr *apperror.AppError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) && appErr.Field == "username":
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, rejected)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "resident", users[0].Username)

	avatars, err := f.users.Avatars(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Len(t, avatars, 1, "losing registrations must not leave avatars behind")
}

func TestRegister_WithoutAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg := registration()
	reg.AvatarName = ""

	res, err := f.users.Register(ctx, reg)
	require.NoError(t, err)

	avatars, err := f.users.Avatars(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Empty(t, avatars)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration())
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"correct credentials", "resident", "hunter22", nil},
		{"wrong password", "resident", "hunter23", apperror.ErrUnauthorized},
		{"unknown user", "nobody", "hunter22", apperror.ErrUnauthorized},
		{"missing password", "resident", "", apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.users.Login(ctx, model.LoginRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "resident", res.User.Username)
			assert.NotEmpty(t, res.Token)
		})
	}
}

func TestLogin_SameMessageForUnknownAndWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, registration())
	require.NoError(t, err)

	_, wrong := f.users.Login(ctx, model.LoginRequest{Username: "resident", Password: "nope-nope"})
	_, unknown := f.users.Login(ctx, model.LoginRequest{Username: "ghost", Password: "nope-nope"})
	assert.Equal(t, wrong.Error(), unknown.Error())
}

func TestCreateUser_Admin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.CreateUser(ctx, model.InsertUser{
		Username: "operator",
		Password: "secret123",
		Email:    "op@example.com",
		IsAdmin:  ptr(true),
	})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = f.users.Login(ctx, model.LoginRequest{Username: "operator", Password: "secret123"})
	assert.NoError(t, err)
}

func TestCreateAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.CreateAvatar(ctx, model.InsertAvatar{UserID: 99, AvatarType: "default", Name: "Ghost"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	res, err := f.users.Register(ctx, registration())
	require.NoError(t, err)

	a, err := f.users.CreateAvatar(ctx, model.InsertAvatar{UserID: res.User.ID, AvatarType: "default", Name: "Second"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, a.UserID)

	_, err = f.users.CreateAvatar(ctx, model.InsertAvatar{UserID: res.User.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.users.Avatars(ctx, 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
