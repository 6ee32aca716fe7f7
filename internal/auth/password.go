package auth

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MissingPasswordRequirements returns the unmet rules, empty when the password is acceptable.
func MissingPasswordRequirements(password string) []string {
	var hasUpper, hasLower, hasDigit, hasSymbol bool

	for _, r := range password {
		// Letters and digits are ASCII only; anything outside [A-Za-z0-9_] is a symbol.
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r != '_':
			hasSymbol = true
		}
	}

	var missing []string
	if len([]rune(password)) < MinPasswordLength {
		missing = append(missing, "8+ characters")
	}
	if !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "number")
	}
	if !hasSymbol {
		missing = append(missing, "special character")
	}

	return missing
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePasswordField backs the "password" binding tag.
func ValidatePasswordField(fl validator.FieldLevel) bool {
	return len(MissingPasswordRequirements(fl.Field().String())) == 0
}
