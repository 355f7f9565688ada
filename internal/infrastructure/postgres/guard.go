package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// LookupObserver recibe la duración y el resultado de cada consulta (métricas).
type LookupObserver interface {
	ObserveLookup(op string, elapsed time.Duration, err error)
}

// GuardConfig límites del almacén: timeout por consulta y circuit breaker.
// No hay reintentos: un fallo de conectividad se devuelve al llamador como domain.ErrStoreUnavailable.
type GuardConfig struct {
	Timeout time.Duration

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
	// BreakerInterval ventana de conteo en estado cerrado; <= 0 acumula desde el arranque.
	BreakerInterval time.Duration
}

// Guard envuelve cada consulta con timeout, circuit breaker y observación.
type Guard struct {
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[any]
	observer LookupObserver
}

// NewGuard construye el guard. observer puede ser nil.
func NewGuard(cfg GuardConfig, observer LookupObserver, log zerolog.Logger) *Guard {
	g := &Guard{timeout: cfg.Timeout, observer: observer}
	if !cfg.BreakerEnabled {
		return g
	}
	g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !isConnectivityError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("cambio de estado del circuit breaker")
		},
	})
	return g
}

// Do ejecuta fn con el contexto acotado por el timeout del guard.
// Solo los fallos de conectividad, el timeout y el breaker abierto se envuelven con
// domain.ErrStoreUnavailable; el resto (SQL, scan, cancelación) se devuelve con op y sin
// marcar, y domain.ErrNotFound pasa tal cual.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var err error
	if g.breaker != nil {
		_, err = g.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
	} else {
		err = fn(ctx)
	}

	if g.observer != nil {
		g.observer.ObserveLookup(op, time.Since(start), err)
	}
	switch {
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return err
	case unavailable(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func unavailable(err error) bool {
	return isConnectivityError(err) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// guarded variante de Do que devuelve un valor.
func guarded[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
