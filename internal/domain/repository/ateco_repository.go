package repository

import (
	"context"

	"github.com/jhoicas/ateco-api/internal/domain/entity"
)

// ATECOListFilter filtros del listado de la tabla de clasificación.
type ATECOListFilter struct {
	Level      int    // 0 = todos
	ParentCode string
	Search     string // LIKE sobre name, code y description
	OrderBy    string // code|name|level|parent_code (whitelist en el adaptador)
	Desc       bool
	Limit      int
	Offset     int
}

// LevelCount número de códigos por nivel.
type LevelCount struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// ATECOSummary estadísticas generales de la clasificación.
type ATECOSummary struct {
	TotalCodes  int
	TotalLevels int
	MinLevel    int
	MaxLevel    int
	ByLevel     []LevelCount
	Sections    []entity.ATECOCode // códigos de nivel 1
}

// TaxonomyRepository puerto de lectura de la tabla ateco_codes.
// Las implementaciones son read-only y devuelven domain.ErrStoreUnavailable si el almacén falla.
type TaxonomyRepository interface {
	// ListByPrefix devuelve las filas cuyo código sin puntos empieza por flatPrefix (todas si está vacío).
	ListByPrefix(ctx context.Context, flatPrefix string) ([]entity.ATECOCode, error)
	// ListTree devuelve las filas para una petición de árbol: todas, o las que en forma plana
	// empiezan por flatRoot.
	ListTree(ctx context.Context, flatRoot string) ([]entity.ATECOCode, error)
	// GetByCode devuelve domain.ErrNotFound si el código no existe.
	GetByCode(ctx context.Context, code string) (*entity.ATECOCode, error)
	Children(ctx context.Context, code string) ([]entity.ATECOCode, error)
	List(ctx context.Context, f ATECOListFilter) ([]entity.ATECOCode, error)
	Summary(ctx context.Context) (*ATECOSummary, error)
}
