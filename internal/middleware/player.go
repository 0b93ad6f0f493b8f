package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// PlayerIDKey is the fiber locals key under which the resolved player
// identity is stored. Controllers read it instead of repeating the
// header parsing.
const PlayerIDKey = "playerID"

const (
	playerIDHeader = "X-Player-ID"
	playerIDQuery  = "playerId"
)

// RequirePlayerID rejects requests that carry no player identity and
// stashes the resolved ID in locals for downstream handlers. Identity
// is client-minted; the header form wins, with the query param as a
// fallback for websocket dials that cannot set custom headers.
func RequirePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(PlayerIDKey).(string); ok && id != "" {
			return c.Next()
		}

		id := c.Get(playerIDHeader)
		if id == "" {
			id = c.Query(playerIDQuery)
		}
		if id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing player ID",
			})
		}

		logrus.WithField("player", id).Trace("resolved request identity")
		c.Locals(PlayerIDKey, id)
		return c.Next()
	}
}
