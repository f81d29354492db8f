package auth

import (
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestInput() TokenInput {
	return TokenInput{
		UserID:      uuid.New(),
		OutletID:    uuid.New(),
		Permissions: []string{PermissionDepositApprove},
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.GetAccessTokenExpiration())
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	outletID, err := claims.GetOutletUUID()
	require.NoError(t, err)

	assert.Equal(t, input.UserID, userID)
	assert.Equal(t, input.OutletID, outletID)
	assert.Equal(t, input.UserID.String(), claims.Subject)
	assert.True(t, claims.HasPermission(PermissionDepositApprove))
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	token, _, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	issuer := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-of-32-chars!!",
		AccessTokenExpiration: time.Minute,
		Issuer:                "test-issuer",
	})
	token, _, err := issuer.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "someone-else",
	})
	token, _, err := other.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID:   uuid.NewString(),
		OutletID: uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_MissingClaims(t *testing.T) {
	svc := newTestJWTService()
	sign := func(c *Claims) string {
		c.Issuer = "test-issuer"
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(svc.secret)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		claims *Claims
		want   error
	}{
		{"no user", &Claims{OutletID: uuid.NewString()}, ErrMissingUserID},
		{"no outlet", &Claims{UserID: uuid.NewString()}, ErrMissingOutletID},
		{"malformed user", &Claims{UserID: "bob", OutletID: uuid.NewString()}, ErrInvalidClaims},
		{"malformed outlet", &Claims{UserID: uuid.NewString(), OutletID: "main"}, ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(sign(tt.claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaims_HasAnyPermission(t *testing.T) {
	claims := &Claims{Permissions: []string{PermissionPlanManage}}

	assert.True(t, claims.HasAnyPermission(PermissionDealershipApprove, PermissionPlanManage))
	assert.False(t, claims.HasAnyPermission(PermissionDepositApprove))
	assert.False(t, claims.HasAnyPermission())
}
