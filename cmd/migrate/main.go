package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"air-quality-api/internal/config"
	"air-quality-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		down    = flag.Bool("down", false, "roll back the most recent migration")
		version = flag.Bool("version", false, "print the current migration version")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	migrator := database.NewMigrator(&cfg.Database, logger)

	switch {
	case *version:
		v, dirty, err := migrator.Version()
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		fmt.Printf("version=%d dirty=%v\n", v, dirty)
	case *down:
		if err := migrator.Down(); err != nil {
			log.Fatalf("Migration rollback failed: %v", err)
		}
	default:
		if err := migrator.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	os.Exit(0)
}
