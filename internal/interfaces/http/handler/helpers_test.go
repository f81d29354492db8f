package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type testActor struct {
	userID   uuid.UUID
	outletID uuid.UUID
	perms    []string
}

func newTestActor(perms ...string) testActor {
	return testActor{userID: uuid.New(), outletID: uuid.New(), perms: perms}
}

// authenticate stands in for JWTAuth
func (a testActor) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			UserID:      a.userID.String(),
			OutletID:    a.outletID.String(),
			Permissions: a.perms,
		})
		c.Next()
	}
}

func newTestRouter(actor testActor) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), actor.authenticate())
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}
