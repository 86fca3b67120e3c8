package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

// recordingMailer captures outbound OTP mail for assertions.
type recordingMailer struct {
	mu   sync.Mutex
	sent []struct {
		To   string
		Code int
		Flow models.OTPTitle
	}
}

func (m *recordingMailer) SendOTP(to, username string, code int, flow models.OTPTitle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, struct {
		To   string
		Code int
		Flow models.OTPTitle
	}{to, code, flow})
	return nil
}

func (m *recordingMailer) last(t *testing.T) (string, int, models.OTPTitle) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	s := m.sent[len(m.sent)-1]
	return s.To, s.Code, s.Flow
}

func newUserService(env *testEnv, mailer *recordingMailer) *UserService {
	// nil queue keeps mail delivery synchronous in tests.
	return NewUserService(env.users, env.otps, env.visibility, nil, mailer, 10*time.Minute)
}

func TestSignUpNormalizesUsernameAndHashesPassword(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "NewUser_01", "new@example.com", "str0ngpass!")
	require.NoError(t, err)
	assert.Equal(t, "newuser_01", user.Username)
	assert.NotEqual(t, "str0ngpass!", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("str0ngpass!")))
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "first", "dup@example.com", "str0ngpass!")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "second", "dup@example.com", "str0ngpass!")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestSignUpValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "x", "short@example.com", "str0ngpass!")
	require.Error(t, err)

	_, err = svc.SignUp(ctx, "validname", "not-an-email", "str0ngpass!")
	require.Error(t, err)

	_, err = svc.SignUp(ctx, "validname", "ok@example.com", "weak")
	require.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "loginuser", "login@example.com", "str0ngpass!")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "login@example.com", "str0ngpass!")
	require.NoError(t, err)
	assert.Equal(t, "loginuser", user.Username)

	_, err = svc.Authenticate(ctx, "login@example.com", "wrongpass1!")
	require.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "str0ngpass!")
	require.Error(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	mailer := &recordingMailer{}
	svc := newUserService(env, mailer)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "forgetful", "forgetful@example.com", "oldpass0rd!")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "forgetful@example.com"))
	to, code, flow := mailer.last(t)
	assert.Equal(t, "forgetful@example.com", to)
	assert.Equal(t, models.OTPForgotPassword, flow)
	assert.GreaterOrEqual(t, code, 1000)
	assert.LessOrEqual(t, code, 9999)

	require.NoError(t, svc.VerifyPasswordReset(ctx, "forgetful@example.com", code))
	require.NoError(t, svc.ResetPassword(ctx, "forgetful@example.com", code, "newpass0rd!"))

	_, err = svc.Authenticate(ctx, "forgetful@example.com", "newpass0rd!")
	require.NoError(t, err)

	// The code is single-use.
	err = svc.ResetPassword(ctx, "forgetful@example.com", code, "anotherpass1!")
	require.Error(t, err)
}

func TestPasswordResetRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)
	mailer := &recordingMailer{}
	svc := newUserService(env, mailer)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "careful", "careful@example.com", "oldpass0rd!")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "careful@example.com"))

	_, code, _ := mailer.last(t)
	wrong := code + 1
	if wrong > 9999 {
		wrong = 1000
	}
	err = svc.ResetPassword(ctx, "careful@example.com", wrong, "newpass0rd!")
	require.Error(t, err)
}

func TestRepeatRequestOverwritesCode(t *testing.T) {
	env := newTestEnv(t)
	mailer := &recordingMailer{}
	svc := newUserService(env, mailer)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "repeat", "repeat@example.com", "str0ngpass!")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "repeat@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "repeat@example.com"))

	_, code, _ := mailer.last(t)
	otp, err := env.otps.Get(ctx, user.ID, models.OTPForgotPassword)
	require.NoError(t, err)
	assert.Equal(t, code, otp.Value)
}

func TestConfirmEmailFlow(t *testing.T) {
	env := newTestEnv(t)
	mailer := &recordingMailer{}
	svc := newUserService(env, mailer)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "verifier", "verify@example.com", "str0ngpass!")
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerify)

	require.NoError(t, svc.RequestEmailConfirmation(ctx, user.ID))
	_, code, flow := mailer.last(t)
	assert.Equal(t, models.OTPConfirmEmail, flow)

	require.NoError(t, svc.ConfirmEmail(ctx, user.ID, code))

	got, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerify)
}

func TestOTPFlowsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	mailer := &recordingMailer{}
	svc := newUserService(env, mailer)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "twoflows", "two@example.com", "str0ngpass!")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "two@example.com"))
	_, resetCode, _ := mailer.last(t)
	require.NoError(t, svc.RequestEmailConfirmation(ctx, user.ID))
	_, confirmCode, _ := mailer.last(t)

	// Confirming email must not consume the password reset code.
	require.NoError(t, svc.ConfirmEmail(ctx, user.ID, confirmCode))
	require.NoError(t, svc.VerifyPasswordReset(ctx, "two@example.com", resetCode))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "editor", "editor@example.com", "str0ngpass!")
	require.NoError(t, err)

	bio := "writes Go"
	private := true
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Bio: &bio, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "writes Go", updated.Bio)
	assert.True(t, updated.IsPrivate)
	// Untouched fields survive.
	assert.Equal(t, "editor@example.com", updated.Email)
}

func TestGetProfileByUsernameIncludesFollowState(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, &recordingMailer{})
	ctx := context.Background()

	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: true}))

	profile, err := svc.GetProfileByUsername(ctx, alice.ID, "Bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, profile.User.ID)
	assert.Equal(t, models.FollowStateFollowed, profile.FollowState)

	self, err := svc.GetProfile(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStateSelf, self.FollowState)
}
