// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
)

var (
	passwordCharsetRegex = regexp.MustCompile(`^[A-Za-z\d!@#$%^&*]{8,}$`)
	passwordLetterRegex  = regexp.MustCompile(`[A-Za-z]`)
	passwordDigitRegex   = regexp.MustCompile(`\d`)
	passwordSpecialRegex = regexp.MustCompile(`[!@#$%^&*]`)
)

// ValidatePassword checks if a password meets security requirements:
// at least 8 characters drawn from letters, digits and !@#$%^&*, with
// at least one of each class present.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	if !passwordCharsetRegex.MatchString(password) {
		return fmt.Errorf("password may only contain letters, digits and !@#$%%^&*")
	}
	if !passwordLetterRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !passwordDigitRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !passwordSpecialRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}
	return nil
}
