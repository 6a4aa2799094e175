package services

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
)

var validate = validator.New()

// validateStruct runs the struct tags on v and reports failures as a validation error.
func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}
