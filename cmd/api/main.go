package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
	"github.com/jhoicas/ateco-api/internal/infrastructure/metrics"
	"github.com/jhoicas/ateco-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ateco-api/internal/interfaces/http"
	"github.com/jhoicas/ateco-api/pkg/config"
	"github.com/jhoicas/ateco-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Int("concurrency", cfg.Engine.Concurrency).
		Dur("store_timeout", cfg.Engine.StoreTimeout).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var (
		registry  *metrics.Registry
		lookupObs postgres.LookupObserver
		treeObs   appateco.TreeObserver
	)
	if cfg.Metrics.Enabled {
		registry = metrics.New(cfg.App.Name)
		lookupObs = registry
		treeObs = registry
	}

	guard := postgres.NewGuard(postgres.GuardConfig{
		Timeout:             cfg.Engine.StoreTimeout,
		BreakerEnabled:      cfg.Breaker.Enabled,
		BreakerMinRequests:  cfg.Breaker.MinRequests,
		BreakerFailureRatio: cfg.Breaker.FailureRatio,
		BreakerOpenTimeout:  cfg.Breaker.OpenTimeout,
		BreakerInterval:     cfg.Breaker.Interval,
	}, lookupObs, log.Component("store"))

	taxonomyRepo := postgres.NewATECORepository(pool, guard)
	factRepo := postgres.NewImpresaRepository(pool, guard)

	resolver := appateco.NewLeafResolver(taxonomyRepo, factRepo)
	compiler := appateco.NewFilterCompiler(resolver, log.Component("filter"))
	aggregator := appateco.NewAggregator(factRepo, cfg.Engine.Concurrency)
	treeUC := appateco.NewTreeUseCase(taxonomyRepo, aggregator, treeObs, log.Component("tree"))
	atecoUC := usecase.NewATECOUseCase(taxonomyRepo, compiler)
	impreseUC := usecase.NewImpreseUseCase(factRepo, compiler)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.App.SwaggerFile != "" {
		if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.App.SwaggerFile,
				Path:     "docs",
				Title:    "ATECO API",
			}))
		} else {
			log.Warn().Str("file", cfg.App.SwaggerFile).Msg("swagger.json no encontrado, UI deshabilitada")
		}
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ATECOUC:   atecoUC,
		TreeUC:    treeUC,
		ImpreseUC: impreseUC,
		DB:        pool,
		Metrics:   registry,
		Log:       log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
