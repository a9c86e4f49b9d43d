package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"atrium/internal/models"
)

// AdminClaims is the JWT payload issued on admin login.
type AdminClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs a short-lived HMAC token for an admin session.
func GenerateAdminToken(user *models.AdminUser, role string, secret string, ttl time.Duration) (string, error) {
	claims := AdminClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
