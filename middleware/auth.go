package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/logger"
	"handyconnect-server/resp"
	"handyconnect-server/types"
)

const principalKey = "principal"

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	Validate(token string) (types.Principal, error)
}

// AuthMiddleware requires a valid bearer token whose principal is one of
// kinds. With no kinds any authenticated principal passes.
func AuthMiddleware(tokens TokenValidator, kinds ...types.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			resp.Error(c, apperror.NewUnauthorizedError("Authorization header required"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			resp.Error(c, apperror.NewUnauthorizedError("Token must be in format: Bearer <token>"))
			return
		}

		authenticate(c, tokens, tokenString, kinds)
	}
}

// WebSocketAuthMiddleware reads the token from the "token" query parameter,
// since browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware(tokens TokenValidator, kinds ...types.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			resp.Error(c, apperror.NewUnauthorizedError("Token required"))
			return
		}

		authenticate(c, tokens, tokenString, kinds)
	}
}

func authenticate(c *gin.Context, tokens TokenValidator, tokenString string, kinds []types.PrincipalKind) {
	principal, err := tokens.Validate(tokenString)
	if err != nil {
		logger.Debug("🔍 Token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
		resp.Error(c, apperror.NewUnauthorizedError("Token is invalid or expired"))
		return
	}

	if len(kinds) > 0 && !kindAllowed(principal.Kind, kinds) {
		resp.Error(c, apperror.NewForbiddenError("You do not have access to this resource"))
		return
	}

	c.Set(principalKey, principal)
	c.Next()
}

func kindAllowed(kind types.PrincipalKind, kinds []types.PrincipalKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// GetPrincipal returns the principal stored by the auth middleware.
func GetPrincipal(c *gin.Context) (types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return types.Principal{}, false
	}
	p, ok := v.(types.Principal)
	return p, ok
}
