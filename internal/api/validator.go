package api

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"holidayguard/internal/types"
)

// Validator wraps go-playground/validator and reports failures with the
// JSON field names clients sent.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns a validation AppError whose details map each
// failing field to the rule it broke.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	code := types.ErrCodeValidationPayload
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
		if fe.Tag() == "required" {
			code = types.ErrCodeValidationMissingField
		}
	}
	return types.NewAppErrorWithDetails(code, "request failed validation", nil, map[string]any{"fields": fields})
}
