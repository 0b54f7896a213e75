package transport

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/tasktrail/domain"
)

var validate = validator.New()

func init() {
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// TaskRequest carries every client-editable task field. Create and full
// update share it.
type TaskRequest struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	DueDate       string   `json:"dueDate" validate:"required"`
	DueTime       string   `json:"dueTime"`
	AssignedUsers []string `json:"assignedUsers" validate:"omitempty,dive,required"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SignInRequest is optional; an empty body keeps the token's display name.
type SignInRequest struct {
	Name string `json:"name" validate:"omitempty,max=120"`
}

type ProfileUpdateRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// Decode unmarshals body into dst and runs its validation tags. Both
// failures come back as domain validation errors.
func Decode(body []byte, dst interface{}) error {
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return domain.ErrInvalidPayload
		}
	}
	return ValidateStruct(dst)
}

// ValidateStruct checks the validation tags on s.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ErrInvalidPayload
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, describe(e))
	}
	return domain.ValidationError(strings.Join(messages, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag())
	}
}
