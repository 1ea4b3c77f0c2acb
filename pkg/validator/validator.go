package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/ftfc/crm/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the CRM tags registered
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("entitytype", validateEntityType)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// validateEntityType accepts client, investor or partner
func validateEntityType(fl validator.FieldLevel) bool {
	return entities.EntityType(fl.Field().String()).IsValid()
}
