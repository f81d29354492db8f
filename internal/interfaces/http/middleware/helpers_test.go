package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, permissions ...string) (string, auth.TokenInput) {
	t.Helper()
	input := auth.TokenInput{
		UserID:      uuid.New(),
		OutletID:    uuid.New(),
		Permissions: permissions,
	}
	token, _, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	return token, input
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}
