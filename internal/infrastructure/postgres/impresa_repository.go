package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

var _ repository.FactRepository = (*ImpresaRepo)(nil)

var impresaOrderColumns = []string{
	"imprese_attive", "regione", "provincia", "settore", "divisione", "classe", "sottocategoria",
}

// ImpresaRepo consultas de solo lectura sobre la tabla de hechos imprese.
type ImpresaRepo struct {
	db    Querier
	guard *Guard
}

// NewImpresaRepository construye el adaptador de la tabla de hechos.
func NewImpresaRepository(db Querier, guard *Guard) *ImpresaRepo {
	return &ImpresaRepo{db: db, guard: guard}
}

// SumActiveUnits suma por igualdad exacta sobre una de las cuatro columnas de granularidad.
func (r *ImpresaRepo) SumActiveUnits(ctx context.Context, column ateco.Column, value string) (int64, error) {
	if !column.Valid() {
		return 0, fmt.Errorf("imprese.SumActiveUnits: columna no permitida %q", column)
	}
	query := fmt.Sprintf(`
	SELECT COALESCE(SUM(imprese_attive), 0)
	FROM imprese
	WHERE %s = $1`, column)

	return guarded(ctx, r.guard, "imprese.SumActiveUnits", func(ctx context.Context) (int64, error) {
		var total int64
		err := r.db.QueryRow(ctx, query, value).Scan(&total)
		return total, err
	})
}

// DistinctSubcategories sottocategorie distintas bajo el prefijo (settore exacto o prefijo en el resto).
func (r *ImpresaRepo) DistinctSubcategories(ctx context.Context, flatPrefix string) ([]string, error) {
	const query = `
	SELECT DISTINCT sottocategoria
	FROM imprese
	WHERE settore = $1
	   OR divisione LIKE $2
	   OR classe LIKE $2
	   OR sottocategoria LIKE $2
	ORDER BY sottocategoria`

	return guarded(ctx, r.guard, "imprese.DistinctSubcategories", func(ctx context.Context) ([]string, error) {
		rows, err := r.db.Query(ctx, query, flatPrefix, prefixPattern(flatPrefix))
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, pgx.RowTo[string])
	})
}

// List filas filtradas con el nombre del sector; orderBy fuera de la whitelist cae en imprese_attive.
func (r *ImpresaRepo) List(ctx context.Context, f repository.FactFilter, opts repository.FactListOptions) ([]repository.FactRow, error) {
	w := factWhere(f, true)
	order := orderColumn(opts.OrderBy, impresaOrderColumns, "imprese_attive")
	query := fmt.Sprintf(`
	SELECT i.id, i.regione, i.provincia, i.settore, i.divisione, i.classe, i.sottocategoria,
	       i.imprese_attive, COALESCE(a.name, ''), COALESCE(a.description, '')
	FROM imprese i
	LEFT JOIN ateco_codes a ON a.code = i.settore
	%s
	ORDER BY i.%s %s
	LIMIT %s OFFSET %s`,
		w.sql(), order, direction(!opts.Asc), w.arg(opts.Limit), w.arg(opts.Offset))

	return guarded(ctx, r.guard, "imprese.List", func(ctx context.Context) ([]repository.FactRow, error) {
		rows, err := r.db.Query(ctx, query, w.args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.FactRow, error) {
			var fr repository.FactRow
			err := row.Scan(
				&fr.ID,
				&fr.Region,
				&fr.Province,
				&fr.Sector,
				&fr.Division,
				&fr.Class,
				&fr.Subcategory,
				&fr.ActiveUnits,
				&fr.SectorName,
				&fr.SectorDescription,
			)
			return fr, err
		})
	})
}

// Breakdown totales por dimensión ordenados de mayor a menor.
func (r *ImpresaRepo) Breakdown(ctx context.Context, f repository.FactFilter, by repository.GroupKey, limit int) ([]repository.GroupTotal, error) {
	return r.group(ctx, "imprese.Breakdown", factWhere(f, true), by, "3 DESC", limit)
}

// Options totales por valor distinto de la dimensión, sin filtros, ordenados por clave.
func (r *ImpresaRepo) Options(ctx context.Context, by repository.GroupKey) ([]repository.GroupTotal, error) {
	return r.group(ctx, "imprese.Options", &whereBuilder{}, by, "1 ASC", 0)
}

// Statistics suma, media, mínimo y máximo del subconjunto filtrado.
func (r *ImpresaRepo) Statistics(ctx context.Context, f repository.FactFilter) (*repository.FactStats, error) {
	w := factWhere(f, true)
	query := fmt.Sprintf(`
	SELECT
	    COALESCE(SUM(i.imprese_attive), 0),
	    COALESCE(AVG(i.imprese_attive), 0),
	    COALESCE(MIN(i.imprese_attive), 0),
	    COALESCE(MAX(i.imprese_attive), 0)
	FROM imprese i
	%s`, w.sql())

	return guarded(ctx, r.guard, "imprese.Statistics", func(ctx context.Context) (*repository.FactStats, error) {
		var s repository.FactStats
		if err := r.db.QueryRow(ctx, query, w.args...).Scan(&s.Total, &s.Average, &s.Min, &s.Max); err != nil {
			return nil, err
		}
		return &s, nil
	})
}

// MapData agregados por provincia; MinUnits/MaxUnits filtran el total de la provincia (HAVING).
func (r *ImpresaRepo) MapData(ctx context.Context, f repository.FactFilter) ([]repository.ProvinceAggregate, error) {
	w := factWhere(f, false)
	having := ""
	if f.MinUnits > 0 {
		having = "HAVING SUM(i.imprese_attive) >= " + w.arg(f.MinUnits)
	}
	if f.MaxUnits > 0 {
		clause := "SUM(i.imprese_attive) <= " + w.arg(f.MaxUnits)
		if having == "" {
			having = "HAVING " + clause
		} else {
			having += " AND " + clause
		}
	}
	query := fmt.Sprintf(`
	SELECT
	    i.provincia,
	    i.regione,
	    SUM(i.imprese_attive),
	    AVG(i.imprese_attive),
	    MIN(i.imprese_attive),
	    MAX(i.imprese_attive)
	FROM imprese i
	%s
	GROUP BY i.provincia, i.regione
	%s
	ORDER BY 3 DESC`, w.sql(), having)

	return guarded(ctx, r.guard, "imprese.MapData", func(ctx context.Context) ([]repository.ProvinceAggregate, error) {
		rows, err := r.db.Query(ctx, query, w.args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.ProvinceAggregate, error) {
			var p repository.ProvinceAggregate
			err := row.Scan(&p.Province, &p.Region, &p.Total, &p.Average, &p.Min, &p.Max)
			return p, err
		})
	})
}

// group consulta agrupada por una dimensión. Para provincias la etiqueta es la región;
// para columnas ATECO, el nombre del código en ateco_codes.
func (r *ImpresaRepo) group(
	ctx context.Context,
	op string,
	w *whereBuilder,
	by repository.GroupKey,
	orderBy string,
	limit int,
) ([]repository.GroupTotal, error) {
	key, label, join, groupBy, err := groupParts(by)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limitSQL := ""
	if limit > 0 {
		limitSQL = "LIMIT " + w.arg(limit)
	}
	query := fmt.Sprintf(`
	SELECT %s, %s, SUM(i.imprese_attive), AVG(i.imprese_attive)
	FROM imprese i
	%s
	%s
	GROUP BY %s
	ORDER BY %s
	%s`, key, label, join, w.sql(), groupBy, orderBy, limitSQL)

	return guarded(ctx, r.guard, op, func(ctx context.Context) ([]repository.GroupTotal, error) {
		rows, err := r.db.Query(ctx, query, w.args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.GroupTotal, error) {
			var g repository.GroupTotal
			err := row.Scan(&g.Key, &g.Label, &g.Total, &g.Average)
			return g, err
		})
	})
}

// groupParts fragmentos SQL para la dimensión; solo acepta claves de la whitelist.
func groupParts(by repository.GroupKey) (key, label, join, groupBy string, err error) {
	key = "i." + string(by)
	switch {
	case by == repository.ByRegion:
		return key, "''", "", key, nil
	case by == repository.ByProvince:
		return key, "i.regione", "", key + ", i.regione", nil
	case by.IsATECO():
		return key, "COALESCE(MAX(a.name), '')", "LEFT JOIN ateco_codes a ON a.code = " + key, key, nil
	default:
		return "", "", "", "", fmt.Errorf("dimensión no permitida %q", by)
	}
}
