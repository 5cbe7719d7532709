// Package auth guards the order endpoints with bearer-token JWT
// verification. Tokens are HS256-signed with a shared secret; this
// service only verifies, it never issues.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mabubakr1113/order-inventory/internal/api"
)

const subjectKey = "auth.subject"

// Middleware rejects requests without a valid bearer token. The token
// subject is stashed on the gin context for handlers that want it.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			api.Error(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			api.Error(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if sub, err := parsed.Claims.GetSubject(); err == nil {
			c.Set(subjectKey, sub)
		}
		c.Next()
	}
}

// Subject returns the token subject set by Middleware, if any.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
