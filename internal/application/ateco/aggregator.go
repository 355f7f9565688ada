package ateco

import (
	"context"
	"fmt"

	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency consultas simultáneas por defecto en la pasada de conteos directos.
const DefaultConcurrency = 8

// Aggregator anota el bosque con DirectCompanies, TotalCompanies y LeafNodeCount.
type Aggregator struct {
	facts       repository.FactRepository
	concurrency int
}

// NewAggregator construye el agregador; concurrency <= 0 usa DefaultConcurrency.
func NewAggregator(facts repository.FactRepository, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{facts: facts, concurrency: concurrency}
}

// Annotate ejecuta las dos pasadas sobre el bosque:
//
//  1. Conteo directo por nodo, en paralelo con límite de concurrencia. Cada goroutine
//     escribe solo en su propio nodo. Un fallo en cualquier nodo aborta toda la anotación.
//  2. Rollup en post-orden (ateco.Rollup) una vez completada la pasada 1.
func (a *Aggregator) Annotate(ctx context.Context, forest []*ateco.Node) error {
	nodes := ateco.Flatten(forest)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, n := range nodes {
		n := n
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			flat := n.FlatCode()
			column, ok := ateco.ColumnFor(flat)
			if !ok {
				n.DirectCompanies = 0
				return nil
			}
			total, err := a.facts.SumActiveUnits(gctx, column, flat)
			if err != nil {
				return fmt.Errorf("nodo %s: %w", n.Code, err)
			}
			n.DirectCompanies = total
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("conteos directos: %w", err)
	}

	ateco.Rollup(forest)
	return nil
}
