package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
	"github.com/jhoicas/ateco-api/internal/infrastructure/metrics"
	"github.com/rs/zerolog"
)

// Pinger comprueba la conexión con la base de datos (pgxpool.Pool lo cumple).
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ATECOUC   *usecase.ATECOUseCase
	TreeUC    *appateco.TreeUseCase
	ImpreseUC *usecase.ImpreseUseCase
	DB        Pinger            // nil = /health no consulta la base
	Metrics   *metrics.Registry // nil = sin /metrics
	Log       zerolog.Logger
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestID())
	app.Use(RequestLogger(deps.Log))
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}

	app.Get("/health", health(deps.DB))

	api := app.Group("/api")

	// Las rutas fijas van antes de /:code
	atecoGroup := api.Group("/ateco")
	atecoHandler := NewATECOHandler(deps.ATECOUC, deps.TreeUC)
	atecoGroup.Get("/", atecoHandler.List)
	atecoGroup.Get("/statistics/summary", atecoHandler.Summary)
	atecoGroup.Get("/tree", atecoHandler.Tree)
	atecoGroup.Get("/tree/:rootCode", atecoHandler.Tree)
	atecoGroup.Get("/:code/leaves", atecoHandler.Leaves)
	atecoGroup.Get("/:code", atecoHandler.GetByCode)

	impreseGroup := api.Group("/imprese")
	impreseHandler := NewImpreseHandler(deps.ImpreseUC)
	impreseGroup.Get("/", impreseHandler.List)
	impreseGroup.Get("/statistics", impreseHandler.Statistics)
	impreseGroup.Get("/filter-options", impreseHandler.FilterOptions)
	impreseGroup.Get("/map-data", impreseHandler.MapData)
}

// health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health [get]
func health(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(dto.HealthResponse{Status: "ok", Database: "unchecked"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "degraded", Database: "unreachable"})
		}
		return c.JSON(dto.HealthResponse{Status: "ok", Database: "connected"})
	}
}
