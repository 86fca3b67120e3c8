package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelchamgl/analog-threads/internal/email"
	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
	"github.com/pavelchamgl/analog-threads/internal/tasks"
	"github.com/pavelchamgl/analog-threads/internal/validation"
)

// TaskEmailSend is the background job kind for outbound OTP mail.
const TaskEmailSend = "email.send"

type otpMailJob struct {
	To       string          `json:"to"`
	Username string          `json:"username"`
	Code     int             `json:"code"`
	Flow     models.OTPTitle `json:"flow"`
}

// Profile is a user profile enriched with the viewer's relationship to it.
type Profile struct {
	User        *models.User       `json:"user"`
	FollowState models.FollowState `json:"follow_state"`
}

// UpdateProfileInput carries the editable profile fields. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	Bio       *string
	Website   *string
	Location  *string
	IsPrivate *bool
}

// UserService manages accounts: registration, profiles and OTP flows.
type UserService struct {
	userRepo    repository.UserRepository
	otpRepo     repository.OTPRepository
	visibility  *VisibilityService
	queue       *tasks.Queue
	mailer      email.Mailer
	otpLifetime time.Duration
}

// NewUserService returns a UserService and registers the mail job handler
// on the queue.
func NewUserService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	visibility *VisibilityService,
	queue *tasks.Queue,
	mailer email.Mailer,
	otpLifetime time.Duration,
) *UserService {
	s := &UserService{
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		visibility:  visibility,
		queue:       queue,
		mailer:      mailer,
		otpLifetime: otpLifetime,
	}
	if queue != nil {
		queue.Handle(TaskEmailSend, s.handleSendMail)
	}
	return s
}

func (s *UserService) handleSendMail(_ context.Context, payload []byte) error {
	var job otpMailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	return s.mailer.SendOTP(job.To, job.Username, job.Code, job.Flow)
}

// SignUp registers a new account. Usernames are normalized to lowercase;
// the password is stored as a bcrypt hash.
func (s *UserService) SignUp(ctx context.Context, username, emailAddr, password string) (*models.User, error) {
	username = validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(emailAddr); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    emailAddr,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks email and password, returning the account on success.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// GetProfile returns the profile with the viewer's follow state attached.
func (s *UserService) GetProfile(ctx context.Context, viewerID, profileID uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	state, err := s.visibility.FollowState(ctx, viewerID, profileID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, FollowState: state}, nil
}

// GetProfileByUsername resolves a username and returns the profile.
func (s *UserService) GetProfileByUsername(ctx context.Context, viewerID uint, username string) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return s.GetProfile(ctx, viewerID, user.ID)
}

// UpdateProfile applies the non-nil fields to the caller's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Website != nil {
		user.Website = *input.Website
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.IsPrivate != nil {
		user.IsPrivate = *input.IsPrivate
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePhoto stores a new profile photo URL.
func (s *UserService) UpdatePhoto(ctx context.Context, userID uint, photoURL string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Photo = photoURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func newOTPCode() int {
	return rand.IntN(9000) + 1000
}

// issueOTP stores a fresh code for the flow and queues the mail. A repeat
// request overwrites the previous code and extends its expiry.
func (s *UserService) issueOTP(ctx context.Context, user *models.User, flow models.OTPTitle) error {
	code := newOTPCode()
	expiry := time.Now().Add(s.otpLifetime).UTC()
	if err := s.otpRepo.Upsert(ctx, user.ID, flow, code, expiry); err != nil {
		return err
	}

	job := otpMailJob{To: user.Email, Username: user.Username, Code: code, Flow: flow}
	if s.queue == nil {
		return s.mailer.SendOTP(job.To, job.Username, job.Code, job.Flow)
	}
	if err := s.queue.Enqueue(ctx, TaskEmailSend, job); err != nil {
		middleware.Logger.Error("enqueue otp mail failed, sending inline", "error", err)
		return s.mailer.SendOTP(job.To, job.Username, job.Code, job.Flow)
	}
	return nil
}

// RequestPasswordReset starts the forgot_password flow for the account
// behind the email address.
func (s *UserService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", emailAddr)
	}
	return s.issueOTP(ctx, user, models.OTPForgotPassword)
}

// RequestEmailConfirmation starts the confirm_email flow for the caller.
func (s *UserService) RequestEmailConfirmation(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, user, models.OTPConfirmEmail)
}

// verifyOTP checks the submitted code against the stored one for the flow.
func (s *UserService) verifyOTP(ctx context.Context, userID uint, flow models.OTPTitle, code int) error {
	if err := validation.ValidateOTP(code); err != nil {
		return models.NewValidationError(err.Error())
	}
	otp, err := s.otpRepo.Get(ctx, userID, flow)
	if err != nil {
		return err
	}
	if otp.Expired(time.Now()) {
		return models.NewValidationError("The code has expired")
	}
	if otp.Value != code {
		return models.NewValidationError("Invalid code")
	}
	return nil
}

// VerifyPasswordReset checks a forgot_password code without consuming it,
// so the client can gate the password form on it.
func (s *UserService) VerifyPasswordReset(ctx context.Context, emailAddr string, code int) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", emailAddr)
	}
	return s.verifyOTP(ctx, user.ID, models.OTPForgotPassword, code)
}

// ResetPassword completes the forgot_password flow: the code is consumed
// and the password replaced.
func (s *UserService) ResetPassword(ctx context.Context, emailAddr string, code int, newPassword string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", emailAddr)
	}
	if err := s.verifyOTP(ctx, user.ID, models.OTPForgotPassword, code); err != nil {
		return err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return s.otpRepo.Delete(ctx, user.ID, models.OTPForgotPassword)
}

// ConfirmEmail completes the confirm_email flow and marks the address
// verified.
func (s *UserService) ConfirmEmail(ctx context.Context, userID uint, code int) error {
	if err := s.verifyOTP(ctx, userID, models.OTPConfirmEmail, code); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsEmailVerify = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return s.otpRepo.Delete(ctx, userID, models.OTPConfirmEmail)
}
