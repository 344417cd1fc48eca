package middleware

import (
	"errors"
	"net/http"
	"strings"

	"network/logger"
	"network/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookie = "sessionid"
	identityKey   = "identity"
)

// TokenFromRequest reads the session token from the sessionid cookie or,
// failing that, from an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// SessionAuth resolves the request's session, if any, into an Identity.
// Requests without a valid session pass through anonymously.
func SessionAuth(auth *services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		who, err := auth.Identify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrSessionNotFound) {
				logger.L.Warn("session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(identityKey, *who)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 403.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": services.ErrAuthenticationNeeded.Error()})
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}, false
	}
	who, ok := v.(services.Identity)
	return who, ok
}
