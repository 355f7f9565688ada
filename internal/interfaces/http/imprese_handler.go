package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
)

// ImpreseHandler maneja las consultas sobre la tabla de hechos (empresas activas).
type ImpreseHandler struct {
	uc *usecase.ImpreseUseCase
}

// NewImpreseHandler construye el handler.
func NewImpreseHandler(uc *usecase.ImpreseUseCase) *ImpreseHandler {
	return &ImpreseHandler{uc: uc}
}

func parseFilter(c *fiber.Ctx) (dto.ImpreseFilterRequest, bool) {
	var in dto.ImpreseFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return in, false
	}
	return in, true
}

func invalidQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
}

// List godoc
// @Summary      Listar filas de empresas activas
// @Tags         imprese
// @Produce      json
// @Param        regione         query  string  false  "Región"
// @Param        provincia       query  string  false  "Provincia"
// @Param        settore         query  string  false  "Código ATECO (cualquier nivel)"
// @Param        divisione       query  string  false  "División"
// @Param        classe          query  string  false  "Clase"
// @Param        sottocategoria  query  string  false  "Subcategoría"
// @Param        minImprese      query  int     false  "Mínimo de empresas activas"
// @Param        maxImprese      query  int     false  "Máximo de empresas activas"
// @Param        limit           query  int     false  "Límite"  default(1000)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ImpreseListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/imprese [get]
func (h *ImpreseHandler) List(c *fiber.Ctx) error {
	in, ok := parseFilter(c)
	if !ok {
		return invalidQuery(c)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas del subconjunto filtrado
// @Tags         imprese
// @Produce      json
// @Param        regione    query  string  false  "Región"
// @Param        provincia  query  string  false  "Provincia"
// @Param        settore    query  string  false  "Código ATECO (cualquier nivel)"
// @Success      200  {object}  dto.StatisticsResponse
// @Router       /api/imprese/statistics [get]
func (h *ImpreseHandler) Statistics(c *fiber.Ctx) error {
	in, ok := parseFilter(c)
	if !ok {
		return invalidQuery(c)
	}
	out, err := h.uc.Statistics(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// FilterOptions godoc
// @Summary      Valores disponibles para los filtros
// @Tags         imprese
// @Produce      json
// @Success      200  {object}  dto.FilterOptionsResponse
// @Router       /api/imprese/filter-options [get]
func (h *ImpreseHandler) FilterOptions(c *fiber.Ctx) error {
	out, err := h.uc.FilterOptions(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MapData godoc
// @Summary      Agregados por provincia para el mapa
// @Tags         imprese
// @Produce      json
// @Param        regione     query  string  false  "Región"
// @Param        settore     query  string  false  "Código ATECO (cualquier nivel)"
// @Param        minImprese  query  int     false  "Mínimo del total por provincia"
// @Param        maxImprese  query  int     false  "Máximo del total por provincia"
// @Success      200  {object}  dto.MapDataResponse
// @Router       /api/imprese/map-data [get]
func (h *ImpreseHandler) MapData(c *fiber.Ctx) error {
	in, ok := parseFilter(c)
	if !ok {
		return invalidQuery(c)
	}
	out, err := h.uc.MapData(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
