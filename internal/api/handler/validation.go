package handler

import (
	"errors"
	"fmt"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs the struct tags of v, marking failures as domain.ErrValidation
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// validationErrors maps a validator error to field messages
func validationErrors(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make(map[string]string)
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			fields[e.Field()] = "field is required"
		case "max":
			fields[e.Field()] = "must be at most " + e.Param() + " characters"
		case "url":
			fields[e.Field()] = "invalid url"
		default:
			fields[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return fields
}
