package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jhoicas/ateco-api/pkg/config"
	"github.com/jhoicas/ateco-api/pkg/logger"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	var (
		dsn     = flag.String("dsn", "", "Connection string (por defecto DATABASE_URL o DB_*)")
		up      = flag.Bool("up", false, "Aplicar todas las migraciones")
		down    = flag.Bool("down", false, "Revertir todas las migraciones")
		steps   = flag.Int("steps", 0, "Número de migraciones (positivo=up, negativo=down)")
		version = flag.Bool("version", false, "Mostrar la versión actual")
		force   = flag.Int("force", -1, "Forzar versión (usar con cuidado)")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "ateco-migrate"})

	if *dsn == "" {
		*dsn = cfg.DB.ConnectionString()
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("origen de migraciones")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("crear migrador")
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal().Err(err).Msg("leer versión")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("versión actual")
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatal().Err(err).Int("version", *force).Msg("forzar versión")
		}
		log.Info().Int("version", *force).Msg("versión forzada")
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("revertir migraciones")
		}
		log.Info().Msg("migraciones revertidas")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Int("steps", *steps).Msg("aplicar pasos")
		}
		log.Info().Int("steps", *steps).Msg("pasos aplicados")
	default:
		fmt.Fprintln(os.Stderr, "uso: migrate [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}
