package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("post_status", validatePostStatus); err != nil {
		panic(fmt.Sprintf("failed to register post_status validator: %v", err))
	}
}

// validatePostStatus validates that a string is a valid PostStatus enum value
func validatePostStatus(fl validator.FieldLevel) bool {
	switch models.PostStatus(fl.Field().String()) {
	case models.PostStatusDraft, models.PostStatusPublished:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}
