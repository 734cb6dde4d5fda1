package auth

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/engine"
)

// Principal is the caller identified by a valid access token.
type Principal struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// AuthMiddleware returns a Fiber middleware that validates bearer tokens
// and stores the Principal in the request locals.
func AuthMiddleware(iss *Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return engine.UnauthorizedError("No autenticado.")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Formato de autorización inválido")
		}

		p, err := iss.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return engine.UnauthorizedError("Token inválido o expirado")
		}
		c.Locals(principalKey, p)

		return c.Next()
	}
}

// RequireAdmin is a Fiber middleware that checks the authenticated user has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("No autenticado.")
		}
		if !user.HasRole("admin") {
			return engine.ForbiddenError("Se requiere rol de administrador")
		}
		return c.Next()
	}
}

const principalKey = "principal"

// GetUser returns the authenticated caller, or nil on public routes.
func GetUser(c *fiber.Ctx) *Principal {
	user, _ := c.Locals(principalKey).(*Principal)
	return user
}
