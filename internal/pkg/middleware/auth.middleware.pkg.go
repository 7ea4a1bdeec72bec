package middleware

import (
	"net/http"
	"strings"

	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const AuthKey = "auth"

// AuthMiddleware accepts "Bearer <token>" or the bare token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		send := c.MustGet("send").(func(r *types.Response))
		if token == "" {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"}))
			return
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "invalid token", Error: err}))
			return
		}

		c.Set(AuthKey, *claims)
		c.Next()
	}
}

// OptionalAuth attaches the operator when a valid token is present and
// continues anonymously otherwise. Discount lookups use it for user_type.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token != "" {
			if claims, err := jwt.ValidateToken(token); err == nil {
				c.Set(AuthKey, *claims)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the operator attached by AuthMiddleware or OptionalAuth.
func CurrentUser(c *gin.Context) (types.UserWithAuth, bool) {
	v, ok := c.Get(AuthKey)
	if !ok {
		return types.UserWithAuth{}, false
	}
	user, ok := v.(types.UserWithAuth)
	return user, ok
}
