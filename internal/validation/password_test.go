package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "passw0rd!", false},
		{"valid all classes", "Abcdef1@", false},
		{"too short", "ab1!", true},
		{"no digit", "password!", true},
		{"no letter", "12345678!", true},
		{"no special", "password1", true},
		{"forbidden character", "passw0rd! ", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice_01"))
	assert.Error(t, ValidateUsername("al"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("UPPER"))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
}

func TestValidateOTP(t *testing.T) {
	assert.NoError(t, ValidateOTP(1000))
	assert.NoError(t, ValidateOTP(9999))
	assert.Error(t, ValidateOTP(999))
	assert.Error(t, ValidateOTP(10000))
}
