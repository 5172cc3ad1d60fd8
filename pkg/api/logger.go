package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger logs every request once it has been handled. Scrapes of /metrics
// are only logged at debug level.
func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		startTime := time.Now()
		err = c.Next()

		msg := "HTTP Request"
		if err != nil {
			msg = err.Error()
		}

		code := c.Response().StatusCode()

		ipAddress := c.IP()
		if cloudflareConnectingIP := c.Get("CF-Connecting-IP", ""); cloudflareConnectingIP != "" {
			ipAddress = cloudflareConnectingIP
		}

		level := zerolog.InfoLevel
		switch {
		case code >= fiber.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case code >= fiber.StatusBadRequest:
			level = zerolog.WarnLevel
		case c.Path() == "/metrics":
			level = zerolog.DebugLevel
		}

		log.WithLevel(level).
			Int("status", code).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("query", string(c.Request().URI().QueryString())).
			Str("ip", ipAddress).
			Dur("latency", time.Since(startTime)).
			Str("user-agent", c.Get(fiber.HeaderUserAgent)).
			Msg(msg)

		return err
	}
}
