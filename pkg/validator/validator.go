package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// Message renders the failure the way API callers see it.
func (e *ErrorResponse) Message() string {
	switch e.Tag {
	case "required", "uuid_required":
		return fmt.Sprintf("%s is required", e.FailedField)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", e.FailedField, e.Value)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", e.FailedField, e.Value)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.FailedField, e.Value)
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.FailedField)
	}
	return fmt.Sprintf("%s failed on '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// report json names so messages match request bodies
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "body", Tag: "invalid"}}
	}
	for _, err := range verrs {
		errs = append(errs, &ErrorResponse{
			FailedField: fieldPath(err.Namespace()),
			Tag:         err.Tag(),
			Value:       err.Param(),
		})
	}
	return errs
}

// fieldPath drops the root struct name: "ProductInput.sizes[0].size_id"
// becomes "sizes[0].size_id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
