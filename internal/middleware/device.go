package middleware

import (
	"schoolops/internal/config"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// DeviceAuth authenticates kiosk scanners by API key. The bcrypt hash
// of the provisioned key is configured per deployment; the plain key
// travels in the X-Device-Key header.
func DeviceAuth(c *fiber.Ctx) error {
	key := c.Get("X-Device-Key")
	if key == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing device key"})
	}

	hash := config.GetEnv("DEVICE_KEY_HASH", "")
	if hash == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "device access not configured"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid device key"})
	}

	return c.Next()
}
