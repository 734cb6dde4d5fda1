package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestLogger writes one structured line per request, tagged with the id
// set by the requestid middleware. Errors from later handlers are rendered
// through the app's ErrorHandler here and not propagated.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// render the error now so the logged status is the one sent
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		log := WithRequestID(id)
		status := c.Response().StatusCode()
		args := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		if err != nil {
			args = append(args, "error", err)
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("request", args...)
		} else {
			log.Info("request", args...)
		}
		return nil
	}
}
