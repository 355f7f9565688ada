package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
)

// ATECOHandler maneja las peticiones HTTP de la clasificación ATECO.
type ATECOHandler struct {
	uc   *usecase.ATECOUseCase
	tree *appateco.TreeUseCase
}

// NewATECOHandler construye el handler.
func NewATECOHandler(uc *usecase.ATECOUseCase, tree *appateco.TreeUseCase) *ATECOHandler {
	return &ATECOHandler{uc: uc, tree: tree}
}

// List godoc
// @Summary      Listar códigos ATECO
// @Tags         ateco
// @Produce      json
// @Param        level        query  int     false  "Nivel"
// @Param        parent_code  query  string  false  "Código padre"
// @Param        search       query  string  false  "Búsqueda en código, nombre o descripción"
// @Param        limit        query  int     false  "Límite"  default(1000)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Param        orderBy      query  string  false  "code|name|level|parent_code"
// @Param        orderDir     query  string  false  "ASC|DESC"
// @Success      200  {object}  dto.ATECOListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ateco [get]
func (h *ATECOHandler) List(c *fiber.Ctx) error {
	var in dto.ATECOListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidQuery(c)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByCode godoc
// @Summary      Obtener código ATECO con hijos y padre
// @Tags         ateco
// @Produce      json
// @Param        code  path  string  true  "Código ATECO (p. ej. A.01.1)"
// @Success      200  {object}  dto.ATECODetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ateco/{code} [get]
func (h *ATECOHandler) GetByCode(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_CODE", Message: "code es requerido"})
	}
	out, err := h.uc.Get(c.UserContext(), code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Estadísticas de la clasificación ATECO
// @Tags         ateco
// @Produce      json
// @Success      200  {object}  dto.ATECOSummaryResponse
// @Router       /api/ateco/statistics/summary [get]
func (h *ATECOHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Tree godoc
// @Summary      Árbol ATECO con número de empresas activas por nodo
// @Description  Sin rootCode devuelve el bosque completo; con rootCode sólo el subárbol.
// @Tags         ateco
// @Produce      json
// @Param        rootCode  path  string  false  "Código raíz (A01 o A.01)"
// @Success      200  {object}  dto.ATECOTreeResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ateco/tree/{rootCode} [get]
func (h *ATECOHandler) Tree(c *fiber.Ctx) error {
	out, err := h.tree.GetTree(c.UserContext(), c.Params("rootCode"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Leaves godoc
// @Summary      Sottocategorie hoja bajo un código
// @Description  Conjunto usado para filtrar la tabla de hechos. Vacío = no coincide ninguna fila.
// @Tags         ateco
// @Produce      json
// @Param        code  path  string  true  "Código ATECO"
// @Success      200  {object}  dto.LeafCodesResponse
// @Router       /api/ateco/{code}/leaves [get]
func (h *ATECOHandler) Leaves(c *fiber.Ctx) error {
	out, err := h.uc.Leaves(c.UserContext(), strings.TrimSpace(c.Params("code")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
