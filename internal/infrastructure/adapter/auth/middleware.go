package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

const claimsKey = "auth_claims"

// TokenVerifier is satisfied by *Verifier
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// RequireBearer rejects requests without a valid bearer token with 401 {"error":"Unauthorized"}
func RequireBearer(verifier TokenVerifier, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("auth.token_rejected", map[string]any{
				"path":  c.FullPath(),
				"error": err.Error(),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the verified claims stored by RequireBearer
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil
}

// UserIDFrom returns the caller identity, or "" when unauthenticated
func UserIDFrom(c *gin.Context) string {
	if claims, ok := ClaimsFrom(c); ok {
		return claims.Subject
	}
	return ""
}
