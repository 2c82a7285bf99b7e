package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/openslot/booking-api/internal/model"
)

// RegisterValidators wires custom validators into gin's binding engine.
// Call once during router setup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	return v.RegisterValidation("bookable_duration", func(fl validator.FieldLevel) bool {
		return model.ValidDuration(int(fl.Field().Int()))
	})
}
