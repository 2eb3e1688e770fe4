package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/importer"
	"reviewhub/internal/logging"
)

func main() {
	dataDir := flag.String("data", "", "directory with the CSV fixture files (defaults to CSV_DATA_PATH)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := logging.New(cfg)

	dir := cfg.CSVDataPath
	if *dataDir != "" {
		dir = *dataDir
	}

	ctx := context.Background()

	// The schema must exist before bulk loading into it.
	gdb, err := database.OpenGorm(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	if err := importer.Run(ctx, conn, dir, logger); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}
