package api

import (
	"net/http"
	"strings"

	"storefront/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	roleAdmin = "admin"
)

var (
	errMissingToken = apperr.Auth("missing_token", "Authorization header with a Bearer token is required")
	errInvalidToken = apperr.Auth("invalid_token", "Token is invalid or expired")
	errForbidden    = apperr.Auth("forbidden", "Admin access required")
)

// Claims are the bearer token claims issued by the account service
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// authMiddleware rejects requests without a valid HS256 bearer token
func authMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			abortWithError(c, errMissingToken)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || claims.UserID == 0 {
			abortWithError(c, errInvalidToken)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// requireAdmin must run after authMiddleware
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody(errForbidden))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(ctxRole) == roleAdmin
}
