package auth

import (
	"fmt"
	"net/http"
	"strings"

	"leaflens/backend/internal/config"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
)

const ctxUserUID = "userUID"

// CurrentUID returns the authenticated user's UID from the Gin context.
// Set by AuthMiddleware or FirebaseAuthMiddleware.
func CurrentUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(ctxUserUID))
}

// AuthMiddleware validates the Bearer JWT and sets the acting user's UID.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := uidFromToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}
		c.Set(ctxUserUID, uid)
		c.Next()
	}
}

func uidFromToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token, err := gojwt.Parse(parts[1], func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return "", false
	}
	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}
