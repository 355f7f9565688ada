package dto

import "github.com/jhoicas/ateco-api/internal/domain/ateco"

// ATECOListRequest parámetros para GET /api/ateco.
type ATECOListRequest struct {
	Level      int    `query:"level"`
	ParentCode string `query:"parent_code"`
	Search     string `query:"search"`
	Limit      int    `query:"limit"` // default 1000
	Offset     int    `query:"offset"`
	OrderBy    string `query:"orderBy"`  // code|name|level|parent_code
	OrderDir   string `query:"orderDir"` // ASC|DESC
}

// ATECOCodeDTO código de la clasificación.
type ATECOCodeDTO struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Level       int     `json:"level"`
	ParentCode  *string `json:"parent_code"`
	Description string  `json:"description"`
}

// ATECOListFilters filtros efectivos devueltos con el listado.
type ATECOListFilters struct {
	Level      *int   `json:"level"`
	ParentCode string `json:"parent_code,omitempty"`
	Search     string `json:"search,omitempty"`
}

// ATECOListResponse respuesta de GET /api/ateco.
type ATECOListResponse struct {
	ATECOCodes []ATECOCodeDTO   `json:"ateco_codes"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	Filters    ATECOListFilters `json:"filters"`
}

// ATECODetailResponse respuesta de GET /api/ateco/:code (con hijos y padre).
type ATECODetailResponse struct {
	ATECOCodeDTO
	Children []ATECOCodeDTO `json:"children"`
	Parent   *ATECOCodeDTO  `json:"parent"`
}

// ATECOGeneralStatsDTO totales de la clasificación.
type ATECOGeneralStatsDTO struct {
	TotalCodes  int `json:"total_codes"`
	TotalLevels int `json:"total_levels"`
	MinLevel    int `json:"min_level"`
	MaxLevel    int `json:"max_level"`
}

// LevelCountDTO número de códigos por nivel.
type LevelCountDTO struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// ATECOSummaryResponse respuesta de GET /api/ateco/statistics/summary.
type ATECOSummaryResponse struct {
	General     ATECOGeneralStatsDTO `json:"general"`
	ByLevel     []LevelCountDTO      `json:"by_level"`
	TopSections []ATECOCodeDTO       `json:"top_sections"`
}

// ATECOTreeResponse respuesta de GET /api/ateco/tree[/:rootCode].
type ATECOTreeResponse struct {
	Root      string        `json:"root,omitempty"`
	NodeCount int           `json:"node_count"`
	Tree      []*ateco.Node `json:"tree"`
}

// LeafCodesResponse respuesta de GET /api/ateco/:code/leaves.
// MatchNothing es true cuando Codes está vacío: el filtro no debe aceptar ninguna fila.
type LeafCodesResponse struct {
	Code         string   `json:"code"`
	Codes        []string `json:"codes"`
	MatchNothing bool     `json:"match_nothing"`
}
