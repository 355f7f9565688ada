package ateco

import (
	"context"

	"github.com/jhoicas/ateco-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// FilterCompiler traduce un código seleccionado en el conjunto de igualdad exacta
// sobre la columna sottocategoria. Es una capa fina sobre LeafResolver.
type FilterCompiler struct {
	resolver *LeafResolver
	log      zerolog.Logger
}

// NewFilterCompiler construye el compilador.
func NewFilterCompiler(resolver *LeafResolver, log zerolog.Logger) *FilterCompiler {
	return &FilterCompiler{resolver: resolver, log: log}
}

// Compile devuelve el conjunto del resolver sin modificarlo. Vacío = "ninguna fila".
func (c *FilterCompiler) Compile(ctx context.Context, code string) ([]string, error) {
	return c.resolver.Resolve(ctx, code)
}

// Restrict aplica el filtro de sector a f. Con code vacío no restringe nada.
func (c *FilterCompiler) Restrict(ctx context.Context, f *repository.FactFilter, code string) error {
	if code == "" {
		return nil
	}
	codes, err := c.Compile(ctx, code)
	if err != nil {
		return err
	}
	c.log.Debug().
		Str("settore", code).
		Int("codes", len(codes)).
		Msg("filtro de sector compilado")
	f.SectorFiltered = true
	f.SectorCodes = codes
	return nil
}
