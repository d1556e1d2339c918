package security

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

// JWTMiddleware validates JWT and extracts claims.
func JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return secret(), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims := token.Claims.(jwt.MapClaims)
		c.Set("userID", claims["userID"])
		c.Set("userName", claims["name"])
		c.Next()
	}
}

// CurrentActor resolves the acting user from the claims set by
// JWTMiddleware. Operations receive the actor explicitly; nothing reads
// it from ambient state.
func CurrentActor(c *gin.Context) (models.Actor, error) {
	rawID, exists := c.Get("userID")
	if !exists {
		return models.Actor{}, fmt.Errorf("userID claim missing")
	}

	// JWT numbers decode as float64.
	idFloat, ok := rawID.(float64)
	if !ok {
		return models.Actor{}, fmt.Errorf("userID claim has unexpected type %T", rawID)
	}

	name, _ := c.Get("userName")
	nameStr, _ := name.(string)

	return models.Actor{ID: int(idFloat), Name: nameStr}, nil
}
