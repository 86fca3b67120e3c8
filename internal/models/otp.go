package models

import (
	"time"
)

// OTPTitle distinguishes the independent one-time-password flows.
type OTPTitle string

const (
	// OTPForgotPassword is the password-reset flow.
	OTPForgotPassword OTPTitle = "forgot_password"
	// OTPConfirmEmail is the email-confirmation flow.
	OTPConfirmEmail OTPTitle = "confirm_email"
)

// OTP stores the active one-time password for a (user, flow) pair.
// Requesting a new code overwrites the previous one and extends expiry.
type OTP struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_otp_user_title" json:"user_id"`
	Title       OTPTitle  `gorm:"type:varchar(32);not null;uniqueIndex:idx_otp_user_title" json:"title"`
	Value       int       `gorm:"not null" json:"-"`
	ExpiredDate time.Time `gorm:"not null" json:"expired_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Expired reports whether the code is no longer usable at now.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiredDate)
}
