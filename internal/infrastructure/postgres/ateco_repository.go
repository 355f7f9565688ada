package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

var _ repository.TaxonomyRepository = (*ATECORepo)(nil)

var atecoOrderColumns = []string{"code", "name", "level", "parent_code"}

const atecoColumns = `code, name, level, COALESCE(parent_code, ''), COALESCE(description, '')`

// ATECORepo consultas de solo lectura sobre ateco_codes.
type ATECORepo struct {
	db    Querier
	guard *Guard
}

// NewATECORepository construye el adaptador de la taxonomía.
func NewATECORepository(db Querier, guard *Guard) *ATECORepo {
	return &ATECORepo{db: db, guard: guard}
}

// ListByPrefix compara sobre el código sin puntos, igual que la tabla de hechos.
func (r *ATECORepo) ListByPrefix(ctx context.Context, flatPrefix string) ([]entity.ATECOCode, error) {
	const query = `
	SELECT ` + atecoColumns + `
	FROM ateco_codes
	WHERE $1 = '' OR REPLACE(code, '.', '') LIKE $2
	ORDER BY code`

	return guarded(ctx, r.guard, "ateco.ListByPrefix", func(ctx context.Context) ([]entity.ATECOCode, error) {
		return r.query(ctx, query, flatPrefix, prefixPattern(flatPrefix))
	})
}

// ListTree todas las filas, o las que en forma plana extienden flatRoot (usa idx_ateco_code_flat).
func (r *ATECORepo) ListTree(ctx context.Context, flatRoot string) ([]entity.ATECOCode, error) {
	const query = `
	SELECT ` + atecoColumns + `
	FROM ateco_codes
	WHERE $1 = '' OR REPLACE(code, '.', '') LIKE $2
	ORDER BY code`

	return guarded(ctx, r.guard, "ateco.ListTree", func(ctx context.Context) ([]entity.ATECOCode, error) {
		return r.query(ctx, query, flatRoot, prefixPattern(flatRoot))
	})
}

// GetByCode devuelve domain.ErrNotFound si el código no existe.
func (r *ATECORepo) GetByCode(ctx context.Context, code string) (*entity.ATECOCode, error) {
	const query = `
	SELECT ` + atecoColumns + `
	FROM ateco_codes
	WHERE code = $1`

	return guarded(ctx, r.guard, "ateco.GetByCode", func(ctx context.Context) (*entity.ATECOCode, error) {
		var c entity.ATECOCode
		err := r.db.QueryRow(ctx, query, code).
			Scan(&c.Code, &c.Name, &c.Level, &c.ParentCode, &c.Description)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &c, nil
	})
}

// Children hijos directos ordenados por código.
func (r *ATECORepo) Children(ctx context.Context, code string) ([]entity.ATECOCode, error) {
	const query = `
	SELECT ` + atecoColumns + `
	FROM ateco_codes
	WHERE parent_code = $1
	ORDER BY code`

	return guarded(ctx, r.guard, "ateco.Children", func(ctx context.Context) ([]entity.ATECOCode, error) {
		return r.query(ctx, query, code)
	})
}

// List listado con filtros; orderBy fuera de la whitelist cae en "code".
func (r *ATECORepo) List(ctx context.Context, f repository.ATECOListFilter) ([]entity.ATECOCode, error) {
	w := &whereBuilder{}
	if f.Level > 0 {
		w.add("level = " + w.arg(f.Level))
	}
	w.eq("parent_code", f.ParentCode)
	if f.Search != "" {
		p := w.arg("%" + escapeLike(f.Search) + "%")
		w.add("(name ILIKE " + p + " OR code ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	order := orderColumn(f.OrderBy, atecoOrderColumns, "code")

	query := fmt.Sprintf(`
	SELECT %s
	FROM ateco_codes
	%s
	ORDER BY %s %s
	LIMIT %s OFFSET %s`,
		atecoColumns, w.sql(), order, direction(f.Desc), w.arg(f.Limit), w.arg(f.Offset))

	return guarded(ctx, r.guard, "ateco.List", func(ctx context.Context) ([]entity.ATECOCode, error) {
		return r.query(ctx, query, w.args...)
	})
}

// Summary totales, códigos por nivel y secciones (nivel 1).
func (r *ATECORepo) Summary(ctx context.Context) (*repository.ATECOSummary, error) {
	const general = `
	SELECT COUNT(*), COUNT(DISTINCT level), COALESCE(MIN(level), 0), COALESCE(MAX(level), 0)
	FROM ateco_codes`
	const byLevel = `
	SELECT level, COUNT(*)
	FROM ateco_codes
	GROUP BY level
	ORDER BY level`
	const sections = `
	SELECT ` + atecoColumns + `
	FROM ateco_codes
	WHERE level = 1
	ORDER BY code`

	return guarded(ctx, r.guard, "ateco.Summary", func(ctx context.Context) (*repository.ATECOSummary, error) {
		var s repository.ATECOSummary
		if err := r.db.QueryRow(ctx, general).
			Scan(&s.TotalCodes, &s.TotalLevels, &s.MinLevel, &s.MaxLevel); err != nil {
			return nil, fmt.Errorf("general: %w", err)
		}

		rows, err := r.db.Query(ctx, byLevel)
		if err != nil {
			return nil, fmt.Errorf("por nivel: %w", err)
		}
		levels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.LevelCount, error) {
			var l repository.LevelCount
			err := row.Scan(&l.Level, &l.Count)
			return l, err
		})
		if err != nil {
			return nil, fmt.Errorf("por nivel scan: %w", err)
		}
		s.ByLevel = levels

		s.Sections, err = r.query(ctx, sections)
		if err != nil {
			return nil, fmt.Errorf("secciones: %w", err)
		}
		return &s, nil
	})
}

func (r *ATECORepo) query(ctx context.Context, query string, args ...any) ([]entity.ATECOCode, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanATECOCode)
}

func scanATECOCode(row pgx.CollectableRow) (entity.ATECOCode, error) {
	var c entity.ATECOCode
	err := row.Scan(&c.Code, &c.Name, &c.Level, &c.ParentCode, &c.Description)
	return c, err
}
