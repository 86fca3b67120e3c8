package validation

import "fmt"

// ValidateOTP checks that a one-time password is a 4-digit code.
func ValidateOTP(otp int) error {
	if otp < 1000 || otp > 9999 {
		return fmt.Errorf("otp must be a 4-digit code")
	}
	return nil
}
