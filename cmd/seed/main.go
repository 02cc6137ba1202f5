// Command seed creates admin and organizer accounts from a YAML file.
//
//	go run ./cmd/seed -file seed.yaml
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/repository/postgres"
	"campusevents/internal/seed"
)

func main() {
	path := flag.String("file", "seed.yaml", "Path to the seed accounts file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.NewLogger(os.Stderr, "", "").Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, cfg.Environment, cfg.LogLevel)

	file, err := seed.LoadFile(*path)
	if err != nil {
		logger.Error("invalid seed file", "path", *path, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate", "err", err)
		os.Exit(1)
	}

	seeder := &seed.Seeder{
		Users:  postgres.NewUserRepository(db),
		Hasher: auth.NewBcryptHasher(0),
		Now:    time.Now,
	}
	res, err := seeder.Run(ctx, file)
	if err != nil {
		logger.Error("seeding failed", "created", res.Created, "err", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "created", res.Created, "skipped", res.Skipped)
}
