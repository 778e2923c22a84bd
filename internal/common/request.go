package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// DecodeJSON reads the request body into dst and, when v is non-nil, checks
// its validate struct tags. An empty body decodes as an empty object.
func DecodeJSON(r *http.Request, v *validator.Validate, dst any) error {
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return NewAppError("PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge, err)
			}
			return ErrInvalidJSON(err)
		}
	}
	if v == nil {
		return nil
	}
	return Validate(v, dst)
}

// Validate runs struct validation and converts failures into a 422 AppError.
func Validate(v *validator.Validate, value any) error {
	err := v.Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity, err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: jsonPath(fe.Namespace()), Rule: fe.Tag(), Param: fe.Param()})
	}
	appErr := NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity, err)
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

// NewValidator returns a validator that reports json tag names in errors.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// jsonPath drops the top-level struct name from a validator namespace.
func jsonPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
