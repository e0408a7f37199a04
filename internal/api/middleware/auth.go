package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/auth"
)

const accountKey = "account"

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(token string) (auth.Account, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// account on the context.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		account, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("ip", c.ClientIP()).Msg("auth: token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

// RequireExport lets only roles that may download exports through.
func RequireExport() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok || !account.Role.CanExport() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "exports are not available for this account"})
			return
		}
		c.Next()
	}
}

// CurrentAccount returns the account set by RequireAuth.
func CurrentAccount(c *gin.Context) (auth.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return auth.Account{}, false
	}
	account, ok := v.(auth.Account)
	return account, ok
}
