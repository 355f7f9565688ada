package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID cabecera de correlación entre peticiones y logs.
const HeaderRequestID = "X-Request-ID"

// LocalRequestID clave en c.Locals del id de la petición.
const LocalRequestID = "request_id"

const localLogger = "logger"

// RequestID reutiliza el X-Request-ID entrante o genera uno nuevo (UUID v4).
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(LocalRequestID, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// GetRequestID devuelve el id de la petición (después del middleware RequestID).
func GetRequestID(c *fiber.Ctx) string {
	v := c.Locals(LocalRequestID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func requestLog(c *fiber.Ctx) zerolog.Logger {
	if l, ok := c.Locals(localLogger).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

// RequestLogger registra una línea por petición con método, ruta, estado y duración.
// Deja el logger en c.Locals para que writeError registre la causa de los 5xx.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		c.Locals(localLogger, log)
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("request_id", GetRequestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http")
		return err
	}
}
