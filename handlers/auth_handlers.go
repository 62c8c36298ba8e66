package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"lpstudio/api/models"
	"lpstudio/api/utils"
)

// account is one of the two fixed builder accounts. Passwords may be
// stored as bcrypt hashes or plain env values (dev); both compare in
// constant time.
type account struct {
	Username string
	Password string
	Role     string
}

// AuthHandlers serves login/logout for the builder UI. There is no
// signup: the account set is fixed (admin + member) and comes from env.
type AuthHandlers struct {
	accounts []account
}

func NewAuthHandlers() *AuthHandlers {
	return &AuthHandlers{
		accounts: []account{
			{
				Username: envOr("ADMIN_USER", "admin"),
				Password: envOr("ADMIN_PASS", "admin123"),
				Role:     "admin",
			},
			{
				Username: envOr("MEMBER_USER", "member"),
				Password: envOr("MEMBER_PASS", "member123"),
				Role:     "member",
			},
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// Login authenticates against the fixed account pair and issues a JWT
// cookie. Invalid credentials are a 401, never a server error.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var matched *account
	for i := range h.accounts {
		if h.accounts[i].Username == req.Username && passwordMatches(h.accounts[i].Password, req.Password) {
			matched = &h.accounts[i]
			break
		}
	}
	if matched == nil {
		log.Printf("Login failed for user %s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateJWT(matched.Username, matched.Role)
	if err != nil {
		log.Printf("ERROR: Failed to generate JWT for user %s: %v", matched.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"jwt_token",
		tokenString,
		int(24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("User logged in: %s (%s). JWT issued.", matched.Username, matched.Role)
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"username": matched.Username,
		"role":     matched.Role,
	})
}

// Logout clears the JWT cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"jwt_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	log.Println("User logged out (JWT cookie cleared).")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
