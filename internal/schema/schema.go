// Package schema validates request payloads against the rules declared in
// the model struct tags.
//
// Validation never stops at the first failure: the returned error lists
// every failing field, keyed by its JSON name.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so clients can match errors to inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	v.RegisterStructValidation(squareInsertRegion, model.InsertRegion{})
	v.RegisterStructValidation(squareRegionPatch, model.RegionPatch{})
	v.RegisterStructValidation(runningInsertGrid, model.InsertGrid{})
	v.RegisterStructValidation(runningGridPatch, model.GridPatch{})
	return v
}

// Validate checks value (a struct or pointer to struct) and returns nil or
// an *apperror.AppError wrapping apperror.ErrValidation.
func Validate(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("schema: %w", err)
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return apperror.Invalid(fields)
}

// Both sizes must agree when both are supplied. Missing sizes default to
// 256 on insert and keep their stored value on patch.
func squareInsertRegion(sl validator.StructLevel) {
	r := sl.Current().Interface().(model.InsertRegion)
	if r.SizeX != nil && r.SizeY != nil && *r.SizeX != *r.SizeY {
		sl.ReportError(r.SizeY, "sizeY", "SizeY", "square", "")
	}
}

func squareRegionPatch(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.RegionPatch)
	if p.SizeX != nil && p.SizeY != nil && *p.SizeX != *p.SizeY {
		sl.ReportError(p.SizeY, "sizeY", "SizeY", "square", "")
	}
}

// A grid may only claim to be running while online. An insert defaults to
// offline, so isRunning needs an explicit online status. A patch is only
// checked against itself here; the store checks the merged record.
func runningInsertGrid(sl validator.StructLevel) {
	g := sl.Current().Interface().(model.InsertGrid)
	if g.IsRunning != nil && *g.IsRunning && (g.Status == nil || *g.Status != model.StatusOnline) {
		sl.ReportError(g.IsRunning, "isRunning", "IsRunning", "running", "")
	}
}

func runningGridPatch(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.GridPatch)
	if p.IsRunning != nil && *p.IsRunning && p.Status != nil && *p.Status != model.StatusOnline {
		sl.ReportError(p.IsRunning, "isRunning", "IsRunning", "running", "")
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "eqfield":
		if field == "confirmPassword" {
			return "Passwords don't match"
		}
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "square":
		return "Regions must be square: sizeY must equal sizeX"
	case "running":
		return "isRunning requires status online"
	}
	return field + " is invalid"
}
