package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/tutela-go-api/internal/utils"
)

// SchedulerSecretHeader carries the shared secret on internal batch triggers.
const SchedulerSecretHeader = "X-Internal-Secret"

// SchedulerProtected guards internal batch endpoints with a shared secret.
// The comparison is constant time so the secret cannot be probed.
func SchedulerProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return utils.SendError(c, fiber.StatusForbidden, "scheduler endpoints disabled")
		}

		provided := c.Get(SchedulerSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid scheduler secret")
		}

		return c.Next()
	}
}
