package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ymori/dinnerbot/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("request_type", validateRequestType); err != nil {
		panic(fmt.Sprintf("failed to register request_type validator: %v", err))
	}
}

// validateRequestType validates that a string is a valid RequestType enum value
func validateRequestType(fl validator.FieldLevel) bool {
	return models.RequestType(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateRating validates a meal rating value
func ValidateRating(value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("invalid rating: %d (must be between 1 and 5)", value)
	}
	return nil
}
