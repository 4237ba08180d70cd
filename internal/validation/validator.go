package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?(\d.*){3,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// registration only fails on an empty tag name, which these are not
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	return v
}

// Payload is a request schema. Normalize runs before validation.
type Payload interface {
	Normalize()
}

// Bind decodes body into dst, normalizes it and checks every rule.
// When requirePayload is set an empty body or object is rejected.
func Bind(body []byte, dst Payload, requirePayload bool) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		if requirePayload {
			return apperror.BadRequest("Payload is required")
		}
		trimmed = []byte("{}")
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.Validation([]apperror.FieldError{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind()),
			}})
		}
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}

	dst.Normalize()

	if fields := Check(dst); len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

// Check validates p and returns every violated field.
func Check(p any) []apperror.FieldError {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperror.FieldError{{Field: "body", Message: err.Error()}}
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "phone":
		return "Please provide a valid phone number"
	case "role":
		return fmt.Sprintf("%s must be one of [admin, user]", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
