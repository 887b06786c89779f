package main

import (
	"context"
	"flag"
	"log"
	"os"

	"libraryhub-backend/internal/app"
	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/repository/postgres"

	"gopkg.in/yaml.v3"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	catalogPath := flag.String("catalog", "config/seed.yaml", "Path to catalog fixture")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	if err := app.RequireDatabase(cfg, "seed"); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	catalog, err := readCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.GetDatabaseConnectionString(), postgres.PoolOptions{MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	res, err := postgres.Seed(ctx, db, catalog)
	if err != nil {
		log.Fatalf("Failed to populate data: %v", err)
	}

	logger.Info("Catalog populated",
		"members", res.MemberIDs,
		"staff", res.StaffIDs,
		"books", res.BookIDs,
		"copies", len(res.CopyIDs))
}

func readCatalog(filename string) (*postgres.Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var catalog postgres.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}
