package validator

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator"
)

var global *validator.Validate

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cohort_class", validateCohortClass)
	_ = v.RegisterValidation("cohort_section", validateCohortSection)
	_ = v.RegisterValidation("cohort_year", validateCohortYear)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func validateCohortClass(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "IOT", "AIDS", "CYBER":
		return true
	}
	return false
}

func validateCohortSection(fl validator.FieldLevel) bool {
	s := strings.ToUpper(fl.Field().String())
	return s == "A" || s == "B"
}

func validateCohortYear(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "2023", "2024", "2025", "2026":
		return true
	}
	return false
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "email":
		msg = ErrInvalidFormat
	case "cohort_class":
		msg = "Class must be IoT, AIDS or Cyber"
	case "cohort_section":
		msg = "Section must be A or B"
	case "cohort_year":
		msg = "Year must be between 2023 and 2026"
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
