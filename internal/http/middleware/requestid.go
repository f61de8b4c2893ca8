package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the ID is stored in Fiber's context
	// locals for downstream handlers and the logger.
	RequestIDLocalKey = "request_id"
)

// RequestID guarantees every request carries an ID: an incoming
// X-Request-ID is reused, otherwise a fresh UUID is minted. The value
// is stored in locals and echoed on the response header so clients can
// correlate logs.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
