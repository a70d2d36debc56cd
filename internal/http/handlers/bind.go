package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds and validates the request body, translating every failure
// into the envelope's errors list. Returns false when the request was rejected.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)
	if err != nil {
		RespondValidationFailed(ctx, parseBindError(err, out))
		return false
	}

	return true
}

func parseBindError(err error, out interface{}) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct binding tags)
	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		fields := make([]FieldError, 0, len(validatorErrs))

		for _, fieldErr := range validatorErrs {
			param := jsonFieldName(rootType, fieldErr.StructField())
			fields = append(fields, FieldError{
				Msg:      validationMessage(param, fieldErr.Tag(), fieldErr.Param()),
				Param:    param,
				Location: "body",
			})
		}

		return fields
	}

	// custom date unmarshaling
	if errors.Is(err, expense.ErrInvalidDate) {
		return []FieldError{{
			Msg:      "Date must be a valid ISO date",
			Param:    "date",
			Location: "body",
		}}
	}

	// type mismatch
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		param := strings.TrimSpace(typeErr.Field)
		return []FieldError{{
			Msg:      "must be of type " + typeErr.Type.String(),
			Param:    param,
			Location: "body",
		}}
	}

	// bad JSON, truncated body, and anything else
	return []FieldError{{
		Msg:      "Invalid request body",
		Param:    "body",
		Location: "body",
	}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldName resolves a struct field to its json tag name. Request structs
// here are flat, so no nested traversal is needed.
func jsonFieldName(rootType reflect.Type, structField string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)
	if !ok {
		return structField
	}

	tag := sf.Tag.Get("json")
	if tag == "" {
		return structField
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return structField
	}

	return name
}

func validationMessage(param, rule, arg string) string {
	switch rule {
	case "required":
		return capitalize(param) + " is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		return capitalize(param) + " must be at least " + arg + " characters"
	case "max":
		return capitalize(param) + " cannot exceed " + arg + " characters"
	case "gt":
		return capitalize(param) + " must be greater than " + arg
	case "lte":
		return capitalize(param) + " cannot exceed " + arg
	case "notblank":
		return capitalize(param) + " cannot be empty"
	case "expense_category":
		return "Invalid category"
	default:
		if arg != "" {
			return capitalize(param) + " failed " + rule + " validation (" + arg + ")"
		}
		return capitalize(param) + " failed " + rule + " validation"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
