package dto

import "github.com/shopspring/decimal"

// ── Query parameters ──────────────────────────────────────────────────────────

// ImpreseFilterRequest parámetros comunes de /api/imprese, /statistics y /map-data.
// Settore acepta cualquier código ATECO: se compila al conjunto de sottocategorie hoja.
type ImpreseFilterRequest struct {
	Regione        string `query:"regione"`
	Provincia      string `query:"provincia"`
	Settore        string `query:"settore"`
	Divisione      string `query:"divisione"`
	Classe         string `query:"classe"`
	Sottocategoria string `query:"sottocategoria"`
	MinImprese     int64  `query:"minImprese"`
	MaxImprese     int64  `query:"maxImprese"` // 0 = sin máximo
	Limit          int    `query:"limit"`      // default 1000
	Offset         int    `query:"offset"`
	OrderBy        string `query:"orderBy"`  // imprese_attive|regione|provincia|settore|divisione|classe|sottocategoria
	OrderDir       string `query:"orderDir"` // ASC|DESC (default DESC)
}

// ImpreseFiltersDTO filtros efectivos devueltos en las respuestas.
type ImpreseFiltersDTO struct {
	Regione        string `json:"regione,omitempty"`
	Provincia      string `json:"provincia,omitempty"`
	Settore        string `json:"settore,omitempty"`
	Divisione      string `json:"divisione,omitempty"`
	Classe         string `json:"classe,omitempty"`
	Sottocategoria string `json:"sottocategoria,omitempty"`
	MinImprese     int64  `json:"min_imprese"`
	MaxImprese     *int64 `json:"max_imprese"`
}

// ── Listado ───────────────────────────────────────────────────────────────────

// ImpresaDTO fila de la tabla de hechos.
type ImpresaDTO struct {
	ID                 int64  `json:"id"`
	Regione            string `json:"regione"`
	Provincia          string `json:"provincia"`
	Settore            string `json:"settore"`
	Divisione          string `json:"divisione"`
	Classe             string `json:"classe"`
	Sottocategoria     string `json:"sottocategoria"`
	ImpreseAttive      int64  `json:"imprese_attive"`
	SettoreName        string `json:"settore_name,omitempty"`
	SettoreDescription string `json:"settore_description,omitempty"`
}

// GroupTotalDTO total agrupado por una dimensión.
type GroupTotalDTO struct {
	Key          string          `json:"key"`
	Label        string          `json:"label,omitempty"`
	TotalImprese int64           `json:"total_imprese"`
	AvgImprese   decimal.Decimal `json:"avg_imprese"`
}

// ImpreseListResponse respuesta de GET /api/imprese.
type ImpreseListResponse struct {
	Imprese           []ImpresaDTO      `json:"imprese"`
	RegionalBreakdown []GroupTotalDTO   `json:"regional_breakdown"`
	Filters           ImpreseFiltersDTO `json:"filters"`
}

// ── Estadísticas ──────────────────────────────────────────────────────────────

// GeneralStatsDTO estadísticas generales del subconjunto filtrado.
type GeneralStatsDTO struct {
	TotalImprese int64           `json:"total_imprese"`
	AvgImprese   decimal.Decimal `json:"avg_imprese"`
	MinImprese   int64           `json:"min_imprese"`
	MaxImprese   int64           `json:"max_imprese"`
}

// StatisticsResponse respuesta de GET /api/imprese/statistics.
type StatisticsResponse struct {
	General    GeneralStatsDTO   `json:"general"`
	ByRegion   []GroupTotalDTO   `json:"by_region"`
	BySector   []GroupTotalDTO   `json:"by_sector"`
	ByProvince []GroupTotalDTO   `json:"by_province"` // Label = región
	Filters    ImpreseFiltersDTO `json:"filters"`
}

// ── Opciones de filtro ────────────────────────────────────────────────────────

// FilterOptionsResponse respuesta de GET /api/imprese/filter-options.
type FilterOptionsResponse struct {
	Regioni        []GroupTotalDTO `json:"regioni"`
	Province       []GroupTotalDTO `json:"province"` // Label = región
	Settori        []GroupTotalDTO `json:"settori"`  // Label = nombre ATECO
	Divisioni      []GroupTotalDTO `json:"divisioni"`
	Classi         []GroupTotalDTO `json:"classi"`
	Sottocategorie []GroupTotalDTO `json:"sottocategorie"`
}

// ── Mapa ──────────────────────────────────────────────────────────────────────

// ProvinceMapDTO agregado por provincia para el mapa.
type ProvinceMapDTO struct {
	Provincia    string          `json:"provincia"`
	Regione      string          `json:"regione"`
	TotalImprese int64           `json:"total_imprese"`
	AvgImprese   decimal.Decimal `json:"avg_imprese"`
	MinImprese   int64           `json:"min_imprese"`
	MaxImprese   int64           `json:"max_imprese"`
}

// MapDataResponse respuesta de GET /api/imprese/map-data.
type MapDataResponse struct {
	Data    []ProvinceMapDTO  `json:"data"`
	Filters ImpreseFiltersDTO `json:"filters"`
}
