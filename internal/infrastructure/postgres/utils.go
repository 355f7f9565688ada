package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isConnectivityError indica si el error viene de la conexión (red, timeout, servidor caído)
// y no de la consulta. Solo estos errores cuentan como fallo para el circuit breaker.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Clase 08: connection exception; 57P0x: operator intervention (shutdown)
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	return false
}

// escapeLike escapa los comodines de LIKE para que el prefijo se compare literalmente.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// prefixPattern patrón LIKE "empieza por".
func prefixPattern(prefix string) string {
	return escapeLike(prefix) + "%"
}
