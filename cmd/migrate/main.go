// Command migrate applies the storefront schema migrations. It reads
// POSTGRES_URL like the server binary and takes one subcommand:
//
//	migrate up           apply all pending migrations
//	migrate down [n]     roll back n migrations (default 1)
//	migrate version      print the current schema version
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		logger.Error("usage: migrate [-source URL] <up|down [n]|version>")
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	m, err := migrate.New(*source, postgresURL)
	if err != nil {
		logger.Error("failed to open migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		runStep(logger, "up", m.Up)

	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps < 1 {
				logger.Error("down takes a positive step count", slog.String("arg", args[1]))
				os.Exit(1)
			}
		}
		runStep(logger, "down", func() error { return m.Steps(-steps) })

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("failed to read version", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(1)
	}
}

func runStep(logger *slog.Logger, name string, step func() error) {
	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("nothing to migrate", slog.String("command", name))
		return
	}
	if err != nil {
		logger.Error("migration failed", slog.String("command", name), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("migration complete", slog.String("command", name))
}
