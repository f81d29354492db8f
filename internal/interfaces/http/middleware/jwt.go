package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTOutletIDKey = "jwt_outlet_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// ErrMissingClaims is returned when a handler runs without the JWT middleware
var ErrMissingClaims = errors.New("authentication claims not found")

// TokenValidator validates an access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Validator is required for token validation
	Validator TokenValidator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(validator TokenValidator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Validator: validator,
		SkipPaths: []string{"/health"},
	}
}

// JWTAuth creates JWT authentication middleware
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, log, errNoBearerToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, log, errNoBearerToken, "Invalid authorization header format")
			return
		}
		token := strings.TrimPrefix(header, BearerPrefix)
		if token == "" {
			abortUnauthorized(c, log, errNoBearerToken, "Missing token")
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTOutletIDKey, claims.OutletID)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), claims.UserID, claims.OutletID))

		c.Next()
	}
}

// errNoBearerToken marks a request that presented no usable bearer token, as
// opposed to one whose token failed validation.
var errNoBearerToken = errors.New("no bearer token")

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrMissingOutletID):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// Actor is the authenticated caller of a request
type Actor struct {
	UserID   uuid.UUID
	OutletID uuid.UUID
	claims   *auth.Claims
}

// Can reports whether the actor holds the permission
func (a Actor) Can(permission string) bool {
	return a.claims != nil && a.claims.HasPermission(permission)
}

// GetActor returns the authenticated caller from the JWT claims
func GetActor(c *gin.Context) (Actor, error) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return Actor{}, ErrMissingClaims
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return Actor{}, err
	}
	outletID, err := claims.GetOutletUUID()
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: userID, OutletID: outletID, claims: claims}, nil
}
