package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"catalogd/internal/logging"
	"catalogd/internal/repos"
)

// RequireAdmin gates the admin group with HTTP basic auth against the seeded
// admins table. Session handling and the wider auth flows live outside this
// service; the gate only establishes who the acting admin is.
func RequireAdmin(admins *repos.AdminRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, pass, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="catalogd admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		a, err := admins.ByEmail(email)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(pass)) != nil {
			logging.L().Warn("admin auth denied", zap.String("email", email), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}
		c.Locals("admin_id", a.ID)
		return c.Next()
	}
}

func parseBasicAuth(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	user, pass, ok = strings.Cut(string(raw), ":")
	return user, pass, ok
}

func actorID(c *fiber.Ctx) string {
	if id, ok := c.Locals("admin_id").(string); ok {
		return id
	}
	return "unknown"
}
