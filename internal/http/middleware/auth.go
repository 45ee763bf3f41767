// README: Bearer auth middleware backed by the session store.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kolekta/internal/backend"
	"kolekta/internal/modules/session"
)

const callerKey = "auth.caller"

// TokenVerifier resolves a bearer token to its logged-in user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (session.User, error)
}

// Auth rejects requests without a valid session token. On success the caller
// is stashed in the Gin context and the raw token is attached to the request
// context so outgoing backend calls carry it.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(callerKey, user)
		c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), token))
		c.Next()
	}
}

// Caller returns the authenticated user set by Auth.
func Caller(c *gin.Context) session.User {
	v, ok := c.Get(callerKey)
	if !ok {
		return session.User{}
	}
	u, _ := v.(session.User)
	return u
}
