package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by the access token the account service issues.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 access token and returns the caller identity.
func ParseToken(secret, tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, claims.Username, nil
}

// AuthGuard authenticates requests from the Authorization header (or the
// token query parameter for websocket upgrades, which cannot carry headers
// from browsers) and stores the identity in Locals.
func AuthGuard(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if tokenString == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		userID, username, err := ParseToken(secret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("user_id", userID)
		c.Locals("username", username)
		return c.Next()
	}
}

// CallerID reads the authenticated identity set by AuthGuard.
func CallerID(c *fiber.Ctx) (uuid.UUID, string) {
	userID, _ := c.Locals("user_id").(uuid.UUID)
	username, _ := c.Locals("username").(string)
	return userID, username
}
