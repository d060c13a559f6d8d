package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// EmailRegex is a simple email validation regex
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// PasswordMinLength is the minimum password length
	PasswordMinLength = 8
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with the domain enums
// registered as custom tags.
func NewValidator() *Validator {
	v := validator.New()

	// course_level: Beginner, Intermediate, Advanced
	v.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "Beginner", "Intermediate", "Advanced":
			return true
		}
		return false
	})

	// class_type: online, offline, both
	v.RegisterValidation("class_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "online", "offline", "both":
			return true
		}
		return false
	})

	// doc_type: photo, marksheet, id_card, other
	v.RegisterValidation("doc_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "photo", "marksheet", "id_card", "other":
			return true
		}
		return false
	})

	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a user-friendly format
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", e.Field())
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
			case "gte":
				errors[field] = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
			case "lte":
				errors[field] = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
			case "course_level":
				errors[field] = "Level must be Beginner, Intermediate or Advanced"
			case "class_type":
				errors[field] = "Class type must be online, offline or both"
			case "doc_type":
				errors[field] = "Document type must be photo, marksheet, id_card or other"
			default:
				errors[field] = fmt.Sprintf("%s is invalid", e.Field())
			}
		}
	}

	return errors
}

// ValidateEmail checks if an email is valid
func ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return EmailRegex.MatchString(email)
}

// SanitizeString removes potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}
