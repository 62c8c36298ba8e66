package middleware

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"lpstudio/api/utils"
)

// AuthRequired guards builder endpoints. Accepts the JWT cookie set by
// login, an Authorization bearer token, or the X-API-KEY escape hatch for
// scripted access.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != "" && apiKey == os.Getenv("AUTH_DEFAULT") {
			c.Next()
			return
		}

		tokenString, err := c.Cookie("jwt_token")
		if err != nil {
			tokenString = c.GetHeader("Authorization")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("AuthRequired: Invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}
