package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clickwork-app/clickwork-backend/internal/utils"
)

func RequireUserTypes(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, t := range allowed {
		allowedSet[strings.ToLower(t)] = true
	}

	return func(c *fiber.Ctx) error {
		raw := c.Locals("user")
		if raw == nil {
			return fiber.ErrUnauthorized
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		userType := strings.ToLower(strings.TrimSpace(claims.UserType))
		if !allowedSet[userType] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: wrong account type")
		}

		return c.Next()
	}
}
