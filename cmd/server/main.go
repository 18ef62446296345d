// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"eventgate/api"
	"eventgate/config"
	"eventgate/internal/ingest"
	"eventgate/internal/logger"
	"eventgate/internal/schema"
	"eventgate/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting event gateway...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Load and validate the schema document
	sc, err := schema.Load(cfg.SchemaFile)
	if err != nil {
		customLog.Fatalf("Failed to load schema: %v", err)
		os.Exit(1)
	}

	databaseURL := sc.DatabaseURL
	if cfg.DatabaseURL != "" {
		databaseURL = cfg.DatabaseURL
	}

	// 3. Connect to the database
	ctx := context.Background()
	db, dialect, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		customLog.Fatalf("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			customLog.Printf("Error closing database: %v", err)
		}
	}()

	// 4. Reconcile the live schema before accepting any traffic. A database
	// we cannot bring in line with the configuration is fatal.
	ddl, err := storage.Reconcile(ctx, db, dialect, sc)
	if err != nil {
		customLog.Fatalf("Failed to reconcile database schema: %v", err)
		os.Exit(1)
	}
	customLog.Printf("Schema reconciled: %d table(s), %d DDL statement(s) executed", len(sc.Tables), len(ddl))

	// 5. Setup Router and start serving
	pipe := ingest.NewPipeline(sc, db, dialect)
	router := api.SetupRouter(sc, pipe)

	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
