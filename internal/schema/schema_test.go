package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

func ptr[T any](v T) *T { return &v }

// fieldErrors extracts the per-field list from a validation error.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, apperror.ErrValidation), "want validation error, got %v", err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))

	out := make(map[string]string, len(appErr.Errors))
	for _, fe := range appErr.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

func validGrid() model.InsertGrid {
	return model.InsertGrid{
		Name:            "Main Grid",
		Nickname:        "main",
		AdminEmail:      "admin@example.com",
		ExternalAddress: "grid.example.com",
	}
}

func TestValidate_InsertGrid(t *testing.T) {
	t.Run("valid grid passes", func(t *testing.T) {
		assert.NoError(t, Validate(validGrid()))
	})

	t.Run("reports every failing field", func(t *testing.T) {
		fields := fieldErrors(t, Validate(model.InsertGrid{AdminEmail: "not-an-email"}))

		assert.Len(t, fields, 4)
		assert.Equal(t, "name is required", fields["name"])
		assert.Equal(t, "nickname is required", fields["nickname"])
		assert.Equal(t, "externalAddress is required", fields["externalAddress"])
		assert.Equal(t, "adminEmail must be a valid email", fields["adminEmail"])
	})

	t.Run("port out of range", func(t *testing.T) {
		g := validGrid()
		g.Port = ptr(70000)
		fields := fieldErrors(t, Validate(&g))
		assert.Equal(t, "port must be at most 65535", fields["port"])
	})

	t.Run("unknown status", func(t *testing.T) {
		g := validGrid()
		g.Status = ptr(model.Status("sleeping"))
		fields := fieldErrors(t, Validate(g))
		assert.Contains(t, fields["status"], "must be one of")
	})

	t.Run("running needs online status", func(t *testing.T) {
		g := validGrid()
		g.IsRunning = ptr(true)
		fields := fieldErrors(t, Validate(g))
		assert.Equal(t, "isRunning requires status online", fields["isRunning"])

		g.Status = ptr(model.StatusRestarting)
		fields = fieldErrors(t, Validate(g))
		assert.Contains(t, fields, "isRunning")

		g.Status = ptr(model.StatusOnline)
		assert.NoError(t, Validate(g))
	})
}

func TestValidate_GridPatch(t *testing.T) {
	assert.NoError(t, Validate(model.GridPatch{IsRunning: ptr(true)}), "merged record is checked by the store")
	assert.NoError(t, Validate(model.GridPatch{Status: ptr(model.StatusOnline), IsRunning: ptr(true)}))

	fields := fieldErrors(t, Validate(model.GridPatch{Status: ptr(model.StatusOffline), IsRunning: ptr(true)}))
	assert.Equal(t, "isRunning requires status online", fields["isRunning"])
}

func TestValidate_InsertRegion(t *testing.T) {
	valid := model.InsertRegion{GridID: 1, Name: "Sandbox", PositionX: 1000, PositionY: 1000}

	t.Run("defaults are optional", func(t *testing.T) {
		assert.NoError(t, Validate(valid))
	})

	t.Run("non-square region is rejected on sizeY", func(t *testing.T) {
		r := valid
		r.SizeX = ptr(256)
		r.SizeY = ptr(512)
		fields := fieldErrors(t, Validate(r))
		assert.Len(t, fields, 1)
		assert.Contains(t, fields["sizeY"], "square")
	})

	t.Run("single size is allowed", func(t *testing.T) {
		r := valid
		r.SizeX = ptr(512)
		assert.NoError(t, Validate(r))
	})

	t.Run("bad template and missing grid", func(t *testing.T) {
		r := valid
		r.GridID = 0
		r.Template = ptr(model.Template("volcano"))
		fields := fieldErrors(t, Validate(r))
		assert.Equal(t, "gridId is required", fields["gridId"])
		assert.Contains(t, fields["template"], "welcome")
	})
}

func TestValidate_RegionPatch(t *testing.T) {
	assert.NoError(t, Validate(model.RegionPatch{}))
	assert.NoError(t, Validate(model.RegionPatch{Name: ptr("Renamed")}))

	fields := fieldErrors(t, Validate(model.RegionPatch{SizeX: ptr(256), SizeY: ptr(128)}))
	assert.Contains(t, fields, "sizeY")

	fields = fieldErrors(t, Validate(model.RegionPatch{Name: ptr("")}))
	assert.Contains(t, fields, "name")
}

func TestValidate_UserRegistration(t *testing.T) {
	valid := model.UserRegistration{
		Username:        "alice",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Email:           "alice@example.com",
	}

	t.Run("matching passwords pass", func(t *testing.T) {
		assert.NoError(t, Validate(valid))
	})

	t.Run("mismatch is attached to confirmPassword", func(t *testing.T) {
		r := valid
		r.ConfirmPassword = "secret124"
		fields := fieldErrors(t, Validate(r))
		assert.Len(t, fields, 1)
		assert.Equal(t, "Passwords don't match", fields["confirmPassword"])
	})

	t.Run("mismatch is reported with other failures", func(t *testing.T) {
		r := valid
		r.Username = "al"
		r.Email = "nope"
		r.ConfirmPassword = "different"
		fields := fieldErrors(t, Validate(r))
		assert.Len(t, fields, 3)
		assert.Equal(t, "username must be at least 3 characters", fields["username"])
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "confirmPassword")
	})
}

func TestValidate_LoginCustomization(t *testing.T) {
	assert.NoError(t, Validate(model.DefaultLoginCustomization()))
	assert.NoError(t, Validate(model.LoginCustomization{DisplayType: "image", ImageURL: "https://example.com/logo.png"}))

	fields := fieldErrors(t, Validate(model.LoginCustomization{DisplayType: "video", ImageURL: "not a url"}))
	assert.Contains(t, fields, "displayType")
	assert.Equal(t, "imageUrl must be a valid URL", fields["imageUrl"])
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("just a string")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}
