// Package ateco contiene los casos de uso del motor de clasificación: resolución de hojas,
// compilación de filtros y anotación del árbol con conteos de la tabla de hechos.
package ateco

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

// LeafResolver determina los códigos más específicos bajo un código seleccionado.
// No guarda estado entre llamadas: cada resolución lee de nuevo ambos almacenes.
type LeafResolver struct {
	taxonomy repository.TaxonomyRepository
	facts    repository.FactRepository
}

// NewLeafResolver construye el resolver.
func NewLeafResolver(taxonomy repository.TaxonomyRepository, facts repository.FactRepository) *LeafResolver {
	return &LeafResolver{taxonomy: taxonomy, facts: facts}
}

// Resolve devuelve el conjunto de códigos (forma original y forma plana) que cubre
// el código seleccionado y todo lo que cuelga de él.
//
//  1. Código ausente en la taxonomía → conjunto vacío (el llamador lo trata como "ninguna fila").
//  2. Candidatos: códigos de la taxonomía cuya forma plana empieza por la del seleccionado.
//  3. Hojas: candidatos que no son prefijo propio de otro candidato.
//  4. Si la única hoja es el propio código, la taxonomía es menos profunda que los datos:
//     se toman las sottocategorie distintas de la tabla de hechos y se aplica la misma regla de hoja.
//
// Los fallos del almacén se propagan; no hay reintentos.
func (r *LeafResolver) Resolve(ctx context.Context, selected string) ([]string, error) {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return []string{}, nil
	}

	node, err := r.taxonomy.GetByCode(ctx, selected)
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolver hojas de %s: %w", selected, err)
	}

	flat := ateco.StripDots(node.Code)
	rows, err := r.taxonomy.ListByPrefix(ctx, flat)
	if err != nil {
		return nil, fmt.Errorf("resolver hojas de %s: taxonomía: %w", selected, err)
	}

	candidates := []string{node.Code}
	for _, row := range rows {
		if row.Code != node.Code && strings.HasPrefix(ateco.StripDots(row.Code), flat) {
			candidates = append(candidates, row.Code)
		}
	}
	leaves := ateco.LeafCodes(candidates)

	if len(leaves) == 1 && leaves[0] == node.Code {
		values, err := r.facts.DistinctSubcategories(ctx, flat)
		if err != nil {
			return nil, fmt.Errorf("resolver hojas de %s: tabla de hechos: %w", selected, err)
		}
		leaves = ateco.LeafCodes(nonEmpty(values))
	}

	return ateco.WithFlatForms(leaves), nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
