package repository

import (
	"context"

	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// GroupKey dimensión de agrupación de la tabla de hechos.
type GroupKey string

const (
	ByRegion      GroupKey = "regione"
	ByProvince    GroupKey = "provincia"
	BySector      GroupKey = GroupKey(ateco.ColumnSector)
	ByDivision    GroupKey = GroupKey(ateco.ColumnDivision)
	ByClass       GroupKey = GroupKey(ateco.ColumnClass)
	BySubcategory GroupKey = GroupKey(ateco.ColumnSubcategory)
)

// IsATECO indica si la dimensión es una columna de granularidad ATECO (admite JOIN con ateco_codes).
func (k GroupKey) IsATECO() bool {
	return ateco.Column(k).Valid()
}

// FactFilter filtros comunes sobre la tabla imprese.
// Si SectorFiltered es true, solo se aceptan filas cuya sottocategoria esté en SectorCodes;
// un SectorCodes vacío significa "ninguna fila", nunca "sin filtro".
type FactFilter struct {
	Region         string
	Province       string
	SectorFiltered bool
	SectorCodes    []string
	Division       string
	Class          string
	Subcategory    string
	MinUnits       int64
	MaxUnits       int64 // 0 = sin máximo
}

// FactListOptions ordenación y paginación del listado.
type FactListOptions struct {
	OrderBy string // whitelist en el adaptador
	Asc     bool
	Limit   int
	Offset  int
}

// FactRow fila del listado con el nombre del sector (LEFT JOIN a ateco_codes).
type FactRow struct {
	entity.Impresa
	SectorName        string
	SectorDescription string
}

// GroupTotal total de unidades activas por una clave (región, provincia, sector...).
type GroupTotal struct {
	Key     string
	Label   string // región de la provincia, o nombre ATECO de la clave
	Total   int64
	Average decimal.Decimal
}

// FactStats estadísticas generales sobre el subconjunto filtrado.
type FactStats struct {
	Total   int64
	Average decimal.Decimal
	Min     int64
	Max     int64
}

// ProvinceAggregate fila de los datos del mapa.
type ProvinceAggregate struct {
	Province string
	Region   string
	Total    int64
	Average  decimal.Decimal
	Min      int64
	Max      int64
}

// FactRepository puerto de lectura de la tabla de hechos.
// Las implementaciones son read-only y devuelven domain.ErrStoreUnavailable si el almacén falla.
type FactRepository interface {
	// SumActiveUnits suma imprese_attive donde column = value (igualdad exacta). 0 si no hay filas.
	SumActiveUnits(ctx context.Context, column ateco.Column, value string) (int64, error)
	// DistinctSubcategories valores distintos de sottocategoria que coinciden con flatPrefix
	// (settore exacto, o divisione/classe/sottocategoria por prefijo).
	DistinctSubcategories(ctx context.Context, flatPrefix string) ([]string, error)

	List(ctx context.Context, f FactFilter, opts FactListOptions) ([]FactRow, error)
	// Breakdown agrupa por la dimensión, ordenado por total descendente; limit 0 = sin límite.
	Breakdown(ctx context.Context, f FactFilter, by GroupKey, limit int) ([]GroupTotal, error)
	Statistics(ctx context.Context, f FactFilter) (*FactStats, error)
	MapData(ctx context.Context, f FactFilter) ([]ProvinceAggregate, error)
	// Options totales por valor distinto de la dimensión, con el nombre ATECO cuando existe.
	Options(ctx context.Context, by GroupKey) ([]GroupTotal, error)
}
