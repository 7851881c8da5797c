package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
)

const claimsKey = "claims"

// Session reads the session cookie on every request and threads the token
// through the request context. Requests without a cookie pass through
// untouched; RequireSession and RequireRole decide what needs one.
func Session(cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := session.FromRequest(c.Request, cookieName)
		if !ok {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(session.WithToken(c.Request.Context(), token))

		claims, err := session.ParseClaims(token)
		if err != nil {
			logger.Debug("Session token has no readable claims", zap.Error(err))
		} else {
			c.Set(claimsKey, claims)
		}

		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Session
func ClaimsFrom(c *gin.Context) (session.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return session.Claims{}, false
	}
	claims, ok := v.(session.Claims)
	return claims, ok
}

// RequireSession rejects requests that carry no session token
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.TokenFrom(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole hides privileged routes from sessions whose token does not
// carry one of roles. The backend still authorizes every call.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.TokenFrom(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue."})
			c.Abort()
			return
		}

		claims, ok := ClaimsFrom(c)
		if !ok || !claims.HasRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
