package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndSignIn(t *testing.T) {
	_, app := newTestServer(t)

	acct := signUp(t, app, "newcomer")
	assert.NotZero(t, acct.ID)
	assert.NotEmpty(t, acct.Access)
	assert.NotEmpty(t, acct.Refresh)

	// The access token authenticates protected routes.
	resp := doJSON(t, app, http.MethodGet, "/api/v1/notifications", acct.Access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/sign_in", "", fiber.Map{
		"email":    "newcomer@example.com",
		"password": "str0ngpass!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/sign_in", "", fiber.Map{
		"email":    "newcomer@example.com",
		"password": "wrongpass1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSignUpRejectsMismatchedPasswords(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/sign_up", "", fiber.Map{
		"username":  "mismatch",
		"email":     "mismatch@example.com",
		"password":  "str0ngpass!",
		"password2": "different1!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	_, app := newTestServer(t)

	signUp(t, app, "original")
	resp := doJSON(t, app, http.MethodPost, "/api/v1/sign_up", "", fiber.Map{
		"username":  "copycat",
		"email":     "original@example.com",
		"password":  "str0ngpass!",
		"password2": "str0ngpass!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRefreshRotatesTokens(t *testing.T) {
	_, app := newTestServer(t)
	acct := signUp(t, app, "rotator")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/sign_in/refresh", "", fiber.Map{
		"refresh": acct.Refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decodeBody(t, resp, &pair)
	assert.NotEmpty(t, pair.Access)
	assert.NotEqual(t, acct.Refresh, pair.Refresh)

	// The old refresh token was revoked by the rotation.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/sign_in/refresh", "", fiber.Map{
		"refresh": acct.Refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	// The new one still works.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/notifications", pair.Access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRefreshTokenCannotAccessAPI(t *testing.T) {
	_, app := newTestServer(t)
	acct := signUp(t, app, "sneaky")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/notifications", acct.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	_, app := newTestServer(t)
	acct := signUp(t, app, "leaver")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/logout", acct.Access, fiber.Map{
		"refresh": acct.Refresh,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/sign_in/refresh", "", fiber.Map{
		"refresh": acct.Refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/notifications", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
