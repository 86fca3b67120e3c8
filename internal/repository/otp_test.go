package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPRepository_UpsertOverwritesPreviousCode(t *testing.T) {
	truncateTables(testDB)
	repo := NewOTPRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "otpuser", false)

	firstExpiry := time.Now().Add(5 * time.Minute).UTC()
	require.NoError(t, repo.Upsert(ctx, user.ID, models.OTPForgotPassword, 1234, firstExpiry))

	laterExpiry := firstExpiry.Add(10 * time.Minute)
	require.NoError(t, repo.Upsert(ctx, user.ID, models.OTPForgotPassword, 5678, laterExpiry))

	otp, err := repo.Get(ctx, user.ID, models.OTPForgotPassword)
	require.NoError(t, err)
	assert.Equal(t, 5678, otp.Value)
	assert.WithinDuration(t, laterExpiry, otp.ExpiredDate, time.Second)
}

func TestOTPRepository_FlowsAreIndependent(t *testing.T) {
	truncateTables(testDB)
	repo := NewOTPRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "otpuser", false)
	expiry := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.Upsert(ctx, user.ID, models.OTPForgotPassword, 1111, expiry))
	require.NoError(t, repo.Upsert(ctx, user.ID, models.OTPConfirmEmail, 2222, expiry))

	forgot, err := repo.Get(ctx, user.ID, models.OTPForgotPassword)
	require.NoError(t, err)
	confirm, err := repo.Get(ctx, user.ID, models.OTPConfirmEmail)
	require.NoError(t, err)
	assert.Equal(t, 1111, forgot.Value)
	assert.Equal(t, 2222, confirm.Value)
}

func TestOTPRepository_GetMissing(t *testing.T) {
	truncateTables(testDB)
	repo := NewOTPRepository(testDB)

	_, err := repo.Get(context.Background(), 42, models.OTPForgotPassword)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
