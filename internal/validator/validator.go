package validator

import (
	"sync"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// NewValidator builds the shared validator and registers the custom tags
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fiscal_year", func(fl validator.FieldLevel) bool {
		_, err := types.ParseFiscalYear(fl.Field().String())
		return err == nil
	})
	validate = v
	return validate
}

func GetValidator() *validator.Validate {
	once.Do(func() {
		if validate == nil {
			NewValidator()
		}
	})
	return validate
}

func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
