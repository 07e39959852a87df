// Command migrate runs schema operations against the primary database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, sqlDB); err != nil {
			return err
		}
		log.Println("sql migrations applied")
	case "down":
		if err := database.Rollback(ctx, sqlDB); err != nil {
			return err
		}
		log.Println("rolled back latest migration")
	case "status":
		return database.Status(ctx, sqlDB)
	default:
		return usage()
	}
	return nil
}
