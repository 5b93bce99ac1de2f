package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"backend/internal/models"
)

var (
	errMissingToken   = errors.New("missing token")
	errMalformedToken = errors.New("invalid token")
	errBadToken       = errors.New("unauthorized")
)

// parseBearer verifies the HMAC-signed JWT carried in an Authorization
// header and returns its claims. Only HMAC signatures are accepted; an
// attacker must not be able to downgrade verification by picking the alg.
func parseBearer(header, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, errMissingToken
	}

	scheme, tokenStr, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, errMalformedToken
	}

	token, err := jwt.Parse(strings.TrimSpace(tokenStr), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errBadToken
	}
	return claims, nil
}

// RequireRole admits requests whose token carries one of the listed roles.
// With no roles listed, any valid token passes.
func RequireRole(secret string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		role, _ := claims["role"].(string)
		if len(roles) > 0 && !roleAllowed(role, roles) {
			log.Println("[AUTH] [ERROR] role", role, "not permitted")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set("claims", claims)
		c.Set("role", role)
		c.Next()
	}
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

func AdminAuth(secret string) gin.HandlerFunc {
	return RequireRole(secret, models.RoleAdmin)
}
