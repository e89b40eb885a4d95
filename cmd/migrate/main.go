// migrate aplica o revierte el esquema embebido en internal/infrastructure/postgres.
//
// Uso: go run ./cmd/migrate [up|down|steps N|version]
// Sin argumentos ejecuta up. La conexión sale de la misma configuración que la API.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/Vendas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Vendas-api/pkg/config"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(os.Args) < 3 {
			log.Fatal().Msg("uso: migrate steps N")
		}
		n, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("N debe ser un entero")
		}
		err = m.Steps(n)
	case "version":
		var (
			v     uint
			dirty bool
		)
		if v, dirty, err = m.Version(); err == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
	default:
		log.Fatal().Str("command", cmd).Msg("comando desconocido (up, down, steps N, version)")
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("migración fallida")
		os.Exit(1)
	}
}
