package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const LocalUserID = "userId"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID      int64 `json:"user_id"`
	IsActivated bool  `json:"is_activated"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 access token. Token issuance lives in the
// auth service; this is used by tests and local tooling.
func GenerateAccessToken(secret string, userID int64, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:      userID,
		IsActivated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ValidateToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID > 0 {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// RequireUser rejects requests without a valid bearer token and stores the user id in locals.
func RequireUser(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header", "code": "UNAUTHORIZED"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid header format", "code": "UNAUTHORIZED"})
		}

		claims, err := ValidateToken(secret, parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid token", "code": "UNAUTHORIZED"})
		}

		c.Locals(LocalUserID, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(c *fiber.Ctx) (int64, bool) {
	userID, ok := c.Locals(LocalUserID).(int64)
	return userID, ok && userID > 0
}
