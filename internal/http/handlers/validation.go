package handlers

import (
	"strings"

	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs custom binding rules on gin's validator engine.
// Call once at router construction.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("expense_category", func(fl validator.FieldLevel) bool {
		_, ok := expense.ParseCategory(fl.Field().String())
		return ok
	})

	// min/max run before trimming, so a whitespace-only value needs its own rule
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
