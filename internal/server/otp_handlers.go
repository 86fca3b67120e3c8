package server

import (
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ForgotPassword handles POST /api/v1/forgot_password. It mails a 4-digit
// code to the account's address; requesting again replaces the code.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email is required"))
	}

	if err := s.userService.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Verification code sent"})
}

// ForgotPasswordVerify handles POST /api/v1/forgot_password/verify. It
// checks the code without consuming it so the client can show the
// password form before the final update call.
func (s *Server) ForgotPasswordVerify(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   int    `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email and otp are required"))
	}

	if err := s.userService.VerifyPasswordReset(c.Context(), req.Email, req.OTP); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Code accepted"})
}

// ForgotPasswordUpdate handles PUT /api/v1/forgot_password/update. The
// code is consumed on success.
func (s *Server) ForgotPasswordUpdate(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email"`
		OTP       int    `json:"otp"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email, otp and password are required"))
	}
	if req.Password != req.Password2 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Passwords do not match"))
	}

	if err := s.userService.ResetPassword(c.Context(), req.Email, req.OTP, req.Password); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// RequestEmailConfirmation handles POST /api/v1/confirm_email for the
// authenticated user.
func (s *Server) RequestEmailConfirmation(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if err := s.userService.RequestEmailConfirmation(c.Context(), userID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Verification code sent"})
}

// ConfirmEmail handles PUT /api/v1/confirm_email/update, consuming the
// code and marking the account's email as verified.
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		OTP int `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("otp is required"))
	}

	if err := s.userService.ConfirmEmail(c.Context(), userID, req.OTP); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Email confirmed"})
}
