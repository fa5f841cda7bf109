// Command migrate applies the relational schema without starting the server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/pkg/config"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile  string
		dsn      string
		logLevel string
	)
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flagSet.StringVar(&dsn, "dsn", "", "PostgreSQL connection string (overrides POSTGRES_CONN_STR)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg := config.Load(envFile)
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger.Init(logLevel)

	if dsn == "" {
		dsn = cfg.PostgresConnStr
	}
	if dsn == "" {
		return fmt.Errorf("no database: pass --dsn or set POSTGRES_CONN_STR")
	}

	db, err := config.InitPostgres(dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Schema is up to date.")
	return nil
}
