package middleware

import (
	"quota-backend/internal/auth"
	"quota-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const clientKeyLocal = "clientkey"

// RequireService authenticates the calling service from the X-Client-Key
// and X-Service-Token headers and stores the verified clientkey in Locals.
// Commissions are namespaced by this verified key, so callers cannot act on
// another service's behalf.
func RequireService(verifier *auth.ServiceVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientkey := c.Get("X-Client-Key")
		token := c.Get("X-Service-Token")
		if err := verifier.Verify(clientkey, token); err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(clientKeyLocal, clientkey)
		return c.Next()
	}
}

// GetClientKey returns the verified clientkey from Locals ("" if the route
// skipped auth).
func GetClientKey(c *fiber.Ctx) string {
	if k, ok := c.Locals(clientKeyLocal).(string); ok {
		return k
	}
	return ""
}
