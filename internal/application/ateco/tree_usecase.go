package ateco

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// TreeObserver recibe el resultado de cada construcción de árbol (métricas).
type TreeObserver interface {
	ObserveTree(nodes int, elapsed time.Duration, err error)
}

// TreeUseCase arma el árbol ATECO con conteos a partir de las lecturas actuales del almacén.
// No cachea nada: cada petición reconstruye el bosque desde cero.
type TreeUseCase struct {
	taxonomy   repository.TaxonomyRepository
	aggregator *Aggregator
	observer   TreeObserver
	log        zerolog.Logger
}

// NewTreeUseCase construye el caso de uso. observer puede ser nil.
func NewTreeUseCase(
	taxonomy repository.TaxonomyRepository,
	aggregator *Aggregator,
	observer TreeObserver,
	log zerolog.Logger,
) *TreeUseCase {
	return &TreeUseCase{taxonomy: taxonomy, aggregator: aggregator, observer: observer, log: log}
}

// GetTree lee la taxonomía (completa o bajo rootCode), construye el bosque y lo anota.
// rootCode se acepta en forma plana o con puntos.
func (uc *TreeUseCase) GetTree(ctx context.Context, rootCode string) (*dto.ATECOTreeResponse, error) {
	start := time.Now()

	forest, rootCode, err := uc.build(ctx, strings.TrimSpace(rootCode))
	nodes := ateco.Count(forest)
	elapsed := time.Since(start)
	if uc.observer != nil {
		uc.observer.ObserveTree(nodes, elapsed, err)
	}
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("root", rootCode).
		Int("nodes", nodes).
		Dur("elapsed", elapsed).
		Msg("árbol ATECO construido")

	return &dto.ATECOTreeResponse{
		Root:      rootCode,
		NodeCount: nodes,
		Tree:      forest,
	}, nil
}

// build devuelve también la raíz tal como figura en la taxonomía.
func (uc *TreeUseCase) build(ctx context.Context, rootCode string) ([]*ateco.Node, string, error) {
	flat := ateco.StripDots(rootCode)
	rows, err := uc.taxonomy.ListTree(ctx, flat)
	if err != nil {
		return nil, rootCode, fmt.Errorf("árbol: taxonomía: %w", err)
	}
	for _, r := range rows {
		if flat != "" && ateco.StripDots(r.Code) == flat {
			rootCode = r.Code
			break
		}
	}
	forest := ateco.BuildForest(rows, rootCode)
	if err := uc.aggregator.Annotate(ctx, forest); err != nil {
		return nil, rootCode, fmt.Errorf("árbol: %w", err)
	}
	return forest, rootCode, nil
}
