package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade admits only genuine websocket upgrade requests that
// name a game and arrive with a resolved player identity. Params and
// locals survive the upgrade, so the connection handler reads both
// from the websocket.Conn afterwards.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		if c.Params("gameId") == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing game ID",
			})
		}
		if id, ok := c.Locals(PlayerIDKey).(string); !ok || id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing player ID",
			})
		}

		return c.Next()
	}
}
