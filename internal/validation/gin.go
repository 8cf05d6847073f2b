package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagUsername is the binding tag for the registration username charset.
const TagUsername = "username"

// RegisterGinValidators installs the custom binding tags. It must run before
// any handler binds a request that uses them.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Register installs the custom tags on v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagUsername, func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String()) == nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", TagUsername, err)
	}
	return nil
}
