// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"peeps/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidatePassword checks password length. bcrypt refuses input longer than
// 72 bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName checks the display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("name must not exceed 100 characters")
	}
	return nil
}

// ValidateSignup checks every signup field and returns the first failure as
// a validation error.
func ValidateSignup(req models.SignupRequest) error {
	checks := []func() error{
		func() error { return ValidateName(req.Name) },
		func() error { return ValidateEmail(req.Email) },
		func() error { return ValidateUsername(req.Username) },
		func() error { return ValidatePassword(req.Password) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// ValidateUserUpdate checks a partial update. An update with no field present
// is rejected, and present fields are held to the signup rules.
func ValidateUserUpdate(req models.UpdateUserRequest) error {
	if req.Empty() {
		return models.NewValidationError("No fields to update")
	}
	if req.Name != nil {
		if err := ValidateName(*req.Name); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if req.Email != nil {
		if err := ValidateEmail(*req.Email); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if req.Username != nil {
		if err := ValidateUsername(*req.Username); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// NormalizePeepContent trims content and checks it is non-empty and within
// models.MaxPeepLength characters.
func NormalizePeepContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("content must not be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxPeepLength {
		return "", models.NewValidationError(fmt.Sprintf("content must not exceed %d characters", models.MaxPeepLength))
	}
	return content, nil
}
